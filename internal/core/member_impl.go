package core

import "signalhub/internal/domain"

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	meta *domain.Member
	sig  SignalConnection
}

func NewMemberSession(meta *domain.Member, sig SignalConnection) MemberSession {
	return &memberSession{meta: meta, sig: sig}
}

func (m *memberSession) Meta() *domain.Member     { return m.meta }
func (m *memberSession) Signal() SignalConnection { return m.sig }
