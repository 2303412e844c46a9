package session

// Print implements lua.Host.
func (s *Session) Print(text string) {
	s.ui.Print(text)
}

// Quit implements lua.Host.
func (s *Session) Quit() {
	s.Close()
}
