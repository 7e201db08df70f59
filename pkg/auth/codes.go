package auth

// Permission codes used across the PeopleSuite platform. Each code is a
// short opaque string: a create/read/update/delete verb letter followed
// by a resource mnemonic. Handlers declare the codes they accept with
// [RequirePermission]; the accounts service assigns codes to roles.
//
// Codes are compared by exact equality only. Holding UEMP does not imply
// REMP — a handler that accepts either must list both.
const (
	// Employee records (employees service).
	PermEmployeeCreate = "CEMP"
	PermEmployeeRead   = "REMP"
	PermEmployeeUpdate = "UEMP"
	PermEmployeeDelete = "DEMP"

	// Organizations (accounts service).
	PermOrganizationCreate = "CORG"
	PermOrganizationRead   = "RORG"
	PermOrganizationUpdate = "UORG"
	PermOrganizationDelete = "DORG"

	// Expense reports (expenses service).
	PermExpenseCreate = "CEXP"
	PermExpenseRead   = "REXP"
	PermExpenseUpdate = "UEXP"
	PermExpenseDelete = "DEXP"

	// Invoices and payments (finance service).
	PermFinanceCreate = "CFIN"
	PermFinanceRead   = "RFIN"
	PermFinanceUpdate = "UFIN"
	PermFinanceDelete = "DFIN"

	// Projects and assignments (projects service).
	PermProjectCreate = "CPRJ"
	PermProjectRead   = "RPRJ"
	PermProjectUpdate = "UPRJ"
	PermProjectDelete = "DPRJ"

	// Job postings and applicants (recruitment service).
	PermRecruitmentCreate = "CREC"
	PermRecruitmentRead   = "RREC"
	PermRecruitmentUpdate = "UREC"
	PermRecruitmentDelete = "DREC"

	// Performance reviews (performance service).
	PermPerformanceCreate = "CPRF"
	PermPerformanceRead   = "RPRF"
	PermPerformanceUpdate = "UPRF"
	PermPerformanceDelete = "DPRF"

	// Stored documents (files service). Documents are immutable once
	// uploaded, so there is no update code.
	PermFileCreate = "CFIL"
	PermFileRead   = "RFIL"
	PermFileDelete = "DFIL"
)
