package apierr

// Generic failures.
var (
	ErrInternal        = New(KindInternal, "internal", "Something went wrong. Please try again.")
	ErrInvalidInput    = Validation("invalid_input", "Validation failed.")
	ErrBadJSON         = Validation("bad_json", "Request body must be valid JSON.")
	ErrUnauthenticated = New(KindAuthentication, "unauthenticated", "Access denied. No token provided.")
	ErrInvalidToken    = New(KindAuthentication, "invalid_token", "Invalid or expired token. Please log in again.")
	ErrBadCredentials  = New(KindAuthentication, "bad_credentials", "Invalid email or password.")
	ErrAccessDenied    = Forbidden("forbidden", "Access denied.")
	ErrTooManyAttempts = New(KindRateLimited, "too_many_attempts", "Too many login attempts. Please wait a minute before trying again.")
)

// Session registry and activation.
var (
	ErrSessionNotFound      = NotFound("session_not_found", "Session not found.")
	ErrSessionNotActive     = Validation("session_not_active", "Session is not active yet.")
	ErrActiveInconsistent   = New(KindInternal, "active_session_inconsistent", "More than one session is active in this scope.")
	ErrActivationConflict   = Conflict("activation_conflict", "A session is already active in this scope.")
	ErrSessionStatusChanged = Conflict("session_status_changed", "The session status changed while it was being updated. Please retry.")
)

// Eligibility.
var (
	ErrNotActive = Forbidden("not_active", "Your session is not active.")
)

// Group formation, one per ordered precondition.
var (
	ErrNoActiveSession         = Validation("no_active_session", "No active session. Cannot register a group.")
	ErrGroupForbidden          = Forbidden("group_forbidden", "Only students can register a group.")
	ErrSessionMismatch         = Forbidden("session_mismatch", "Your session is not active.")
	ErrAlreadyGrouped          = Validation("already_grouped", "You are already in a group.")
	ErrInvalidIdea             = Validation("invalid_idea", "Idea name is required (at least 2 characters).")
	ErrInvalidSupervisor       = Validation("invalid_supervisor", "Selected supervisor is not in the active session.")
	ErrMembershipSizeViolation = Validation("membership_size_violation", "Group size is outside the session limits.")
	ErrMemberNotInSession      = Validation("member_not_in_session", "All selected members must be in the active session.")
	ErrMemberAlreadyGrouped    = Conflict("member_already_grouped", "One or more selected students are already in a group.")
)

// Accounts and catalog.
var (
	ErrAccountNotFound    = NotFound("account_not_found", "Account not found.")
	ErrDuplicateEmail     = Conflict("duplicate_email", "An account with this email already exists.")
	ErrDuplicateRollNo    = Conflict("duplicate_roll_no", "An account with this roll number already exists.")
	ErrDuplicateEnrolment = Conflict("duplicate_enrolment", "You are already registered for this session.")
	ErrCGPABelowMinimum   = Validation("cgpa_below_minimum", "Your CGPA is below the session minimum.")
	ErrDomainNotFound     = NotFound("domain_not_found", "Domain not found.")
	ErrInvalidDomain      = Validation("invalid_domain", "Selected domain is not valid.")
	ErrDuplicateDomain    = Conflict("duplicate_domain", "A domain with this name already exists.")
	ErrGroupNotFound      = NotFound("group_not_found", "You are not in a group yet.")
)
