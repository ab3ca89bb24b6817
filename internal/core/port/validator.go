package port

// QueryValidator decides whether a raw statement may be executed.
// A nil error means accept.
type QueryValidator interface {
	Check(sql string) error
}
