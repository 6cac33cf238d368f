package discord

// Emoji represents an emoji on discord. Unicode emojis only carry a name.
type Emoji struct {
	Name     string    `json:"name"`
	ID       Snowflake `json:"id,omitempty"`
	Animated bool      `json:"animated,omitempty"`
}

// Identifier returns the emoji in the form used by reaction endpoints.
func (e Emoji) Identifier() string {
	if e.ID.IsNil() {
		return e.Name
	}

	return e.Name + ":" + e.ID.String()
}
