package entities

// AccessCode is a single-use voting credential printed on ballots or
// mailed to residents. Void codes stay in the table so reuse attempts can
// be distinguished from typos.
type AccessCode struct {
	CodeID     string
	ElectionID string
	Code       string
	Void       bool
}
