package core

// Identity is the authenticated user snapshot the gateway attaches to a join
// intent. The core trusts it as supplied; verification happens upstream.
type Identity struct {
	ID          string
	DisplayName string
	AvatarURL   string
}
