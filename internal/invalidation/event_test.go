package invalidation

import (
	"context"
	"strings"
	"testing"

	"github.com/IBM/sarama"
)

var validFP = strings.Repeat("ab", 32)

func TestEvent_Validate(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
		ok   bool
	}{
		{"purge with fingerprint", Event{Type: TypePurge, Fingerprint: validFP}, true},
		{"purge all", Event{Type: TypePurgeAll}, true},
		{"purge without fingerprint", Event{Type: TypePurge}, false},
		{"purge with short fingerprint", Event{Type: TypePurge, Fingerprint: "abc"}, false},
		{"purge with uppercase hex", Event{Type: TypePurge, Fingerprint: strings.ToUpper(validFP)}, false},
		{"unknown type", Event{Type: "drop"}, false},
	}
	for _, tc := range cases {
		if err := tc.ev.Validate(); (err == nil) != tc.ok {
			t.Fatalf("%s: err = %v", tc.name, err)
		}
	}
}

type fakePurger struct {
	purged  []string
	flushes int
}

func (f *fakePurger) Purge(_ context.Context, fp string) { f.purged = append(f.purged, fp) }
func (f *fakePurger) Flush()                             { f.flushes++ }

func msg(body string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "image-purge", Value: []byte(body)}
}

func TestProcessOne_PurgeEvent(t *testing.T) {
	fp := &fakePurger{}
	c := New(Config{}, nil, fp)

	err := c.ProcessOne(context.Background(), msg(`{"type":"purge","fingerprint":"`+validFP+`"}`))
	if err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(fp.purged) != 1 || fp.purged[0] != validFP {
		t.Fatalf("purged = %v", fp.purged)
	}
}

func TestProcessOne_PurgeAllEvent(t *testing.T) {
	fp := &fakePurger{}
	c := New(Config{}, nil, fp)

	if err := c.ProcessOne(context.Background(), msg(`{"type":"purge_all"}`)); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if fp.flushes != 1 {
		t.Fatalf("flushes = %d", fp.flushes)
	}
}

func TestProcessOne_MalformedEventsAreSkippedNotFatal(t *testing.T) {
	fp := &fakePurger{}
	c := New(Config{}, nil, fp)

	for _, body := range []string{"not json", `{"type":"drop"}`, `{"type":"purge"}`} {
		if err := c.ProcessOne(context.Background(), msg(body)); err != nil {
			t.Fatalf("body %q: err = %v, want skip", body, err)
		}
	}
	if len(fp.purged) != 0 || fp.flushes != 0 {
		t.Fatalf("purger touched by malformed events")
	}
}

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers(" b1:9092, ,b2:9092 ")
	if len(got) != 2 || got[0] != "b1:9092" || got[1] != "b2:9092" {
		t.Fatalf("ParseBrokers = %v", got)
	}
}
