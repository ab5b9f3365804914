package chat

import "testing"

func TestWindow_ExcludesTrailingUnansweredUserMessage(t *testing.T) {
	c := NewConversation()
	c.Append(Message{Role: RoleUser, Content: "first question"})
	c.Append(Message{Role: RoleAssistant, Content: "first answer"})
	c.Append(Message{Role: RoleUser, Content: "second question"})

	got := c.Window(DefaultSlideWindow)
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[len(got)-1].Role != RoleAssistant {
		t.Errorf("window must not end with the unanswered user message")
	}
}

func TestWindow_ThreePriorMessagesFitEntirely(t *testing.T) {
	c := NewConversation()
	c.Append(Message{Role: RoleUser, Content: "q1"})
	c.Append(Message{Role: RoleAssistant, Content: "a1"})
	c.Append(Message{Role: RoleUser, Content: "q2"})
	c.Append(Message{Role: RoleAssistant, Content: "a2"})

	got := c.Window(DefaultSlideWindow)
	if len(got) != 4 {
		t.Fatalf("expected all 4 answered messages, got %d", len(got))
	}
}

func TestWindow_BoundedBySlideWindow(t *testing.T) {
	c := NewConversation()
	for i := 0; i < 10; i++ {
		c.Append(Message{Role: RoleUser, Content: "q"})
		c.Append(Message{Role: RoleAssistant, Content: "a"})
	}

	got := c.Window(DefaultSlideWindow)
	if len(got) != DefaultSlideWindow {
		t.Fatalf("expected window of %d, got %d", DefaultSlideWindow, len(got))
	}
	// Oldest surviving message is the answer preceding the last 3 full turns.
	if got[0].Role != RoleAssistant {
		t.Errorf("expected window to start with an assistant message, got %q", got[0].Role)
	}
}

func TestWindow_EmptyConversation(t *testing.T) {
	c := NewConversation()
	if got := c.Window(DefaultSlideWindow); len(got) != 0 {
		t.Fatalf("expected empty window, got %d messages", len(got))
	}
}

func TestReset_ClearsAllMessages(t *testing.T) {
	c := NewConversation()
	for i := 0; i < 5; i++ {
		c.Append(Message{Role: RoleUser, Content: "q"})
	}
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("expected 0 messages after reset, got %d", c.Len())
	}
}

func TestWindow_SnapshotSurvivesReset(t *testing.T) {
	c := NewConversation()
	c.Append(Message{Role: RoleUser, Content: "q1"})
	c.Append(Message{Role: RoleAssistant, Content: "a1"})

	window := c.Window(DefaultSlideWindow)
	c.Reset()

	if len(window) != 2 {
		t.Fatalf("snapshot changed after reset: %d messages", len(window))
	}
	if window[1].Content != "a1" {
		t.Errorf("snapshot content changed after reset")
	}
}

func TestExport_ByteExactFormat(t *testing.T) {
	c := NewConversation()
	c.Append(Message{Role: RoleUser, Content: "What is the max beam span?"})
	c.Append(Message{Role: RoleAssistant, Content: "It depends on the load class."})

	want := "user: What is the max beam span?\nassistant: It depends on the load class.\n"
	if got := c.Export(); got != want {
		t.Fatalf("export mismatch:\ngot  %q\nwant %q", got, want)
	}
}

func TestExport_Empty(t *testing.T) {
	if got := NewConversation().Export(); got != "" {
		t.Fatalf("expected empty export, got %q", got)
	}
}
