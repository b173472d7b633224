package chatmodel

// String wraps a plain text tool result so it satisfies ContentProvider.
type String struct {
	value string
}

func NewString(str string) *String {
	return &String{
		value: str,
	}
}

// GetContent returns the text for the chat history.
func (s String) GetContent() string {
	return s.value
}

func (s String) String() string {
	return s.value
}
