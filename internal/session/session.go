// Package session holds the operator-facing process state: which chat is bound and
// whether scanning is enabled. It is owned by the app loop and never shared across
// goroutines.
package session

type Session struct {
	mode        string
	chatID      int64
	bound       bool
	scanEnabled bool
}

func New(mode string, scanEnabled bool) *Session {
	return &Session{mode: mode, scanEnabled: scanEnabled}
}

func (s *Session) Bind(chatID int64) {
	s.chatID = chatID
	s.bound = true
}

func (s *Session) ChatID() (int64, bool) {
	return s.chatID, s.bound
}

func (s *Session) Mode() string {
	return s.mode
}

func (s *Session) ScanEnabled() bool {
	return s.scanEnabled
}

func (s *Session) SetScanEnabled(enabled bool) {
	s.scanEnabled = enabled
}

func (s *Session) ScanLabel() string {
	if s.scanEnabled {
		return "ON"
	}
	return "OFF"
}
