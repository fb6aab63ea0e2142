package dispositions

import "testing"

func TestTriggerSetsDNC(t *testing.T) {
	tr := DefaultTriggerSets()

	for _, name := range []string{"dnc", "do_not_call", "customer_was_rude", "hostile_hangup", "remove_me"} {
		if !tr.IsDNC(name) {
			t.Fatalf("IsDNC(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "interested", "callback_requested", "voicemail"} {
		if tr.IsDNC(name) {
			t.Fatalf("IsDNC(%q) = true, want false", name)
		}
	}
}

func TestTriggerSetsRemoveEverywhere(t *testing.T) {
	tr := DefaultTriggerSets()

	for _, name := range []string{"not_interested", "wrong_number", "already_has_solar", "deceased", "line_disconnected"} {
		if !tr.IsRemoveEverywhere(name) {
			t.Fatalf("IsRemoveEverywhere(%q) = false, want true", name)
		}
	}
	if tr.IsRemoveEverywhere("interested") {
		t.Fatal("IsRemoveEverywhere(interested) = true")
	}
}

func TestTriggerSetsHostilePhrase(t *testing.T) {
	tr := DefaultTriggerSets()

	phrase, ok := tr.HostilePhrase("I said STOP CALLING me right now")
	if !ok || phrase != "stop calling" {
		t.Fatalf("HostilePhrase = %q, %v", phrase, ok)
	}
	if _, ok := tr.HostilePhrase("sounds great, sign me up"); ok {
		t.Fatal("benign transcript matched a hostile phrase")
	}
	if _, ok := tr.HostilePhrase(""); ok {
		t.Fatal("empty transcript matched")
	}
}
