package e2e

import (
	"chat-relay/checksum"
	"chat-relay/client"
	"chat-relay/domain"
	"testing"

	"github.com/stretchr/testify/suite"
)

type relaySuite struct {
	BaseRelaySuite
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, &relaySuite{})
}

func (s *relaySuite) TestJoinIsBroadcast() {
	sc := s.NewScenario()

	s.Step("alice joins")
	alice := sc.Join("alice")

	s.Step("bob joins and alice hears about it")
	bob := sc.Join("bob")
	alice.Expect(domain.Joined{Identity: bob.Identity})
}

func (s *relaySuite) TestUnicastRoundTrip() {
	sc := s.NewScenario()
	alice := sc.Join("alice")
	bob := sc.Join("bob")
	alice.Expect(domain.Joined{Identity: bob.Identity})

	s.Step("alice writes to bob")
	s.Require().NoError(alice.Send(bob.Identity, "hello"))

	s.Step("bob receives the text, then its checked copy")
	delivered := domain.Delivered{Sender: alice.Identity, Text: "hello"}
	bob.Expect(delivered)
	checked, ok := bob.Next().(domain.DeliveredChecked)
	s.Require().True(ok)
	s.Require().Equal(uint32(0x3610A686), checked.Checksum)
	s.Require().True(client.Verify(delivered, checked))

	s.Step("alice gets her echo")
	alice.Expect(delivered)
}

func (s *relaySuite) TestTextWithSeparators() {
	sc := s.NewScenario()
	alice := sc.Join("alice")
	bob := sc.Join("bob")
	alice.Expect(domain.Joined{Identity: bob.Identity})

	text := "a|b||c"
	s.Require().NoError(alice.Send(bob.Identity, text))
	bob.Expect(domain.Delivered{Sender: alice.Identity, Text: text})
	bob.Expect(domain.DeliveredChecked{Text: text, Checksum: checksum.Checksum([]byte(text))})
}

func (s *relaySuite) TestUnknownRecipient() {
	sc := s.NewScenario()
	alice := sc.Join("alice")
	nobody := sc.Identity("nobody")

	s.Require().NoError(alice.Send(nobody, "anyone there?"))
	alice.Expect(domain.Error{Reason: domain.ReasonRecipientNotFound})

	s.Step("alice is still connected")
	s.Require().NoError(alice.Send(alice.Identity, "note"))
	alice.Expect(domain.Delivered{Sender: alice.Identity, Text: "note"})
}

func (s *relaySuite) TestDuplicateNameIsRejected() {
	sc := s.NewScenario()
	alice := sc.Join("alice")

	s.Step("a second alice is refused and disconnected")
	impostor := sc.Connect(alice.Identity)
	s.Require().NoError(impostor.Register(alice.Identity))
	impostor.Expect(domain.Error{Reason: domain.ReasonNameTaken})
	impostor.ExpectClosed()

	s.Step("the first alice still works")
	s.Require().NoError(alice.Send(alice.Identity, "still here"))
	alice.Expect(domain.Delivered{Sender: alice.Identity, Text: "still here"})
}

func (s *relaySuite) TestLeaveIsAnnouncedOnce() {
	sc := s.NewScenario()
	alice := sc.Join("alice")
	bob := sc.Join("bob")
	alice.Expect(domain.Joined{Identity: bob.Identity})

	s.Step("alice says GONE twice")
	s.Require().NoError(alice.Leave())
	_ = alice.Leave()
	alice.ExpectClosed()

	s.Step("bob sees one departure, then the next join")
	bob.Expect(domain.Departed{Identity: alice.Identity})
	carol := sc.Join("carol")
	bob.Expect(domain.Joined{Identity: carol.Identity})
}

func (s *relaySuite) TestDisconnectIsAnImplicitLeave() {
	sc := s.NewScenario()
	alice := sc.Join("alice")
	bob := sc.Join("bob")
	alice.Expect(domain.Joined{Identity: bob.Identity})

	s.Require().NoError(alice.Close())
	bob.Expect(domain.Departed{Identity: alice.Identity})

	s.Step("the name is free again")
	again := sc.Connect(alice.Identity)
	s.Require().NoError(again.Register(again.Identity))
	roster, ok := again.Next().(domain.RosterSnapshot)
	s.Require().True(ok)
	s.Require().Contains(roster.Identities, alice.Identity)
}

func (s *relaySuite) TestResendDeliversOnceUnchecked() {
	sc := s.NewScenario()
	alice := sc.Join("alice")
	bob := sc.Join("bob")
	alice.Expect(domain.Joined{Identity: bob.Identity})

	s.Step("bob reports a corrupted message back to alice")
	s.Require().NoError(bob.Resend(alice.Identity, "hello"))
	alice.Expect(domain.Delivered{Sender: bob.Identity, Text: "hello"})

	s.Step("nothing follows the resent copy")
	s.Require().NoError(alice.Send(alice.Identity, "marker"))
	alice.Expect(domain.Delivered{Sender: alice.Identity, Text: "marker"})
}

func (s *relaySuite) TestFramesBeforeNameAreIgnored() {
	sc := s.NewScenario()
	early := sc.Connect(sc.Identity("early"))

	s.Require().NoError(early.Send(early.Identity, "too soon"))
	s.Require().NoError(early.Register(""))
	early.Expect(domain.Error{Reason: domain.ReasonInvalidName})

	s.Require().NoError(early.Register(early.Identity))
	roster, ok := early.Next().(domain.RosterSnapshot)
	s.Require().True(ok)
	s.Require().Contains(roster.Identities, early.Identity)
}
