package approval

import (
	"errors"
	"io"
	"os"
	"testing"
)

func TestBatch_ApproveAllIsSticky(t *testing.T) {
	mock := NewMockPrompter(ApproveOne, ApproveAll)
	b := NewGate(ModePrompt, mock).NewBatch()

	want := []Decision{ApproveOne, ApproveAll, ApproveAll, ApproveAll}
	for i, w := range want {
		d, err := b.Confirm(Item{Kind: KindEdit, Summary: "item"})
		if err != nil {
			t.Fatalf("Confirm(%d) error = %v", i, err)
		}
		if d != w {
			t.Errorf("Confirm(%d) = %v, want %v", i, d, w)
		}
	}
	if len(mock.Calls) != 2 {
		t.Errorf("prompted %d times, want 2", len(mock.Calls))
	}
}

func TestBatch_ApproveAllDoesNotLeak(t *testing.T) {
	mock := NewMockPrompter(ApproveAll, Reject)
	g := NewGate(ModePrompt, mock)

	first := g.NewBatch()
	if d, _ := first.Confirm(Item{}); d != ApproveAll {
		t.Fatalf("first batch decision = %v", d)
	}

	second := g.NewBatch()
	if d, _ := second.Confirm(Item{}); d != Reject {
		t.Errorf("second batch decision = %v, want Reject", d)
	}
	if len(mock.Calls) != 2 {
		t.Errorf("prompted %d times, want 2", len(mock.Calls))
	}
}

func TestBatch_Abort(t *testing.T) {
	mock := NewMockPrompter(Reject, Abort, ApproveOne)
	b := NewGate(ModePrompt, mock).NewBatch()

	got := make([]Decision, 0, 4)
	for range 4 {
		d, err := b.Confirm(Item{})
		if err != nil {
			t.Fatalf("Confirm() error = %v", err)
		}
		got = append(got, d)
	}
	want := []Decision{Reject, Abort, Abort, Abort}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("decision %d = %v, want %v", i, got[i], want[i])
		}
	}
	if len(mock.Calls) != 2 {
		t.Errorf("prompted %d times, want 2", len(mock.Calls))
	}
	if !b.Aborted() {
		t.Error("Aborted() = false")
	}
}

func TestBatch_PromptErrorAborts(t *testing.T) {
	mock := &MockPrompter{Errors: []error{io.ErrUnexpectedEOF}}
	b := NewGate(ModePrompt, mock).NewBatch()

	d, err := b.Confirm(Item{})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Confirm() error = %v", err)
	}
	if d != Abort {
		t.Errorf("Confirm() = %v, want Abort", d)
	}
	if d, _ := b.Confirm(Item{}); d != Abort {
		t.Errorf("second Confirm() = %v, want Abort", d)
	}
}

func TestGate_RejectModeNeverPrompts(t *testing.T) {
	mock := NewMockPrompter(ApproveOne)
	g := NewGate(ModeReject, mock)

	d, err := g.Confirm(Item{Kind: KindCommand, Summary: "ls"})
	if err != nil {
		t.Fatal(err)
	}
	if d != Reject {
		t.Errorf("Confirm() = %v, want Reject", d)
	}
	if len(mock.Calls) != 0 || g.Asked() != 0 {
		t.Error("reject mode should not prompt")
	}
}

func TestParseMode(t *testing.T) {
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatal(err)
	}
	defer devNull.Close()

	tests := []struct {
		name    string
		want    Mode
		wantErr bool
	}{
		{"prompt", ModePrompt, false},
		{"reject", ModeReject, false},
		{"auto", ModeReject, false}, // /dev/null is not a terminal
		{"", ModeReject, false},
		{"never", ModePrompt, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.name, devNull)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecision_Err(t *testing.T) {
	if !errors.Is(Reject.Err(), ErrUserRejected) {
		t.Error("Reject.Err() should be ErrUserRejected")
	}
	if !errors.Is(Abort.Err(), ErrUserAborted) {
		t.Error("Abort.Err() should be ErrUserAborted")
	}
	if ApproveAll.Err() != nil || !ApproveAll.Approved() {
		t.Error("ApproveAll should be approved with nil Err")
	}
}
