package interfaces

// PasswordMatcher turns a supplied password into its stored form and checks a
// login attempt against the stored form.
type PasswordMatcher interface {
	Encode(password string) (string, error)
	Matches(stored, supplied string) bool
}
