package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/list", Command{Handler: noop, Description: "List orders", Aliases: []string{"orders"}})
	reg.RegisterCommand("/stats", Command{Handler: noop, Description: "Stats", AdminOnly: true})
	reg.RegisterCommand("/help", Command{Handler: noop, Description: "Help", Hidden: true})
	reg.RegisterCommand("nope", Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/empty", Command{Handler: noop})
	reg.RegisterCommand("/LIST", Command{Handler: noop, Description: "dup"})

	if n := len(reg.Commands()); n != 3 {
		t.Fatalf("registered %d commands, want 3", n)
	}
	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "list" || visible[0].Description != "List orders" {
		t.Fatalf("visible = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 3 || all[0].Text != "help" {
		t.Fatalf("all = %+v", all)
	}

	for _, in := range []string{"/list", "/List@order_bot", "list", "/orders", "/list extra args"} {
		if key, _, ok := reg.LookupCommand(in); !ok || key != "/list" {
			t.Errorf("LookupCommand(%q) = %q, %v", in, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("/missing"); ok {
		t.Fatal("unknown command found")
	}
	if _, _, ok := reg.LookupCommand("   "); ok {
		t.Fatal("blank command found")
	}
}

func TestRegistryHandlers(t *testing.T) {
	reg := NewRegistry()
	if reg.CallbackHandler() != nil || reg.TextFallback() != nil {
		t.Fatal("fresh registry must have no handlers")
	}
	reg.SetCallbackHandler(noop)
	reg.SetTextFallback(noop)
	if reg.CallbackHandler() == nil || reg.TextFallback() == nil {
		t.Fatal("handlers not stored")
	}
}
