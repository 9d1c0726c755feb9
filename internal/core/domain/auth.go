package domain

// User-facing outcome messages.
const (
	MsgRegistered        = "User registered successfully"
	MsgLoginSuccessful   = "Login successful"
	MsgInvalidCredential = "Invalid username or password"
	MsgAccountDisabled   = "User account is disabled"
	MsgAccountLocked     = "User account is locked"
	msgUserExistsPrefix  = "User already exists with username: "
)

// Identity is the part of an AuthenticationResult that only exists on success.
type Identity struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// AuthenticationResult describes the outcome of a login or registration.
// Identity is nil whenever Success is false, so a failed result carries no
// identity fields at all, including in its JSON form.
type AuthenticationResult struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	*Identity
}

// Failed builds an unsuccessful result.
func Failed(message string) *AuthenticationResult {
	return &AuthenticationResult{Message: message}
}

// UserExists is the failure returned when a username is already taken.
func UserExists(username string) *AuthenticationResult {
	return Failed(msgUserExistsPrefix + username)
}

// Succeeded builds a successful result carrying u's identity and role names.
func Succeeded(message string, u *User) *AuthenticationResult {
	return &AuthenticationResult{
		Message: message,
		Success: true,
		Identity: &Identity{
			UserID:   u.ID,
			Username: u.Username,
			Email:    u.Email,
			Roles:    u.RoleNames(),
		},
	}
}

// Principal is the authenticated identity making a request.
type Principal struct {
	UserID   string
	Username string
	Roles    map[RoleName]struct{}
}

// PrincipalFrom converts a successful result into a Principal. It returns nil
// for failed results.
func PrincipalFrom(res *AuthenticationResult) *Principal {
	if res == nil || !res.Success || res.Identity == nil {
		return nil
	}
	p := &Principal{
		UserID:   res.UserID,
		Username: res.Username,
		Roles:    make(map[RoleName]struct{}, len(res.Roles)),
	}
	for _, r := range res.Roles {
		p.Roles[RoleName(r)] = struct{}{}
	}
	return p
}

// Holds reports exact, case-sensitive membership of role.
func (p *Principal) Holds(role RoleName) bool {
	if p == nil {
		return false
	}
	_, ok := p.Roles[role]
	return ok
}

// Decision is the verdict of the authorization engine.
type Decision int

const (
	DecisionDeny Decision = iota
	DecisionAllow
	DecisionUnauthenticated
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionUnauthenticated:
		return "unauthenticated"
	default:
		return "deny"
	}
}
