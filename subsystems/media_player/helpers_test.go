package media_player

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Artiqlate/callisto/models"
)

type recordingSink struct {
	mu      sync.Mutex
	packets []*models.Packet
}

func (s *recordingSink) Send(packet *models.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = append(s.packets, packet)
}

func (s *recordingSink) Packets() []*models.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Packet(nil), s.packets...)
}

func (s *recordingSink) Last() *models.Packet {
	packets := s.Packets()
	if len(packets) == 0 {
		return nil
	}
	return packets[len(packets)-1]
}

// WithField returns the sent packets whose body carries key.
func (s *recordingSink) WithField(key string) []*models.Packet {
	var matching []*models.Packet
	for _, packet := range s.Packets() {
		if packet.Body.Has(key) {
			matching = append(matching, packet)
		}
	}
	return matching
}

func (s *recordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = nil
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type stubResolver struct {
	cached    map[string]string
	requested []string
}

func (r *stubResolver) resolveArt(player string, artUrl string) (string, bool) {
	if localUri, ok := r.cached[artUrl]; ok {
		return localUri, true
	}
	r.requested = append(r.requested, artUrl)
	return "", false
}

// fakeControl records transport calls made from control goroutines.
type fakeControl struct {
	calls chan string
}

func newFakeControl() *fakeControl {
	return &fakeControl{calls: make(chan string, 16)}
}

func (c *fakeControl) record(call string) error {
	c.calls <- call
	return nil
}

func (c *fakeControl) Play() error      { return c.record("Play") }
func (c *fakeControl) Pause() error     { return c.record("Pause") }
func (c *fakeControl) PlayPause() error { return c.record("PlayPause") }
func (c *fakeControl) Next() error      { return c.record("Next") }
func (c *fakeControl) Previous() error  { return c.record("Previous") }
func (c *fakeControl) Stop() error      { return c.record("Stop") }

func (c *fakeControl) SetVolume(volume float64) error {
	return c.record(fmt.Sprintf("SetVolume %.2f", volume))
}

func (c *fakeControl) SetShuffle(shuffle bool) error {
	return c.record(fmt.Sprintf("SetShuffle %t", shuffle))
}

func (c *fakeControl) Await(t *testing.T) string {
	t.Helper()
	select {
	case call := <-c.calls:
		return call
	case <-time.After(time.Second):
		t.Fatal("no control call")
		return ""
	}
}
