package telegram

import (
	"io"
	"os"
	"testing"

	"log/slog"

	"github.com/m3rciful/promobot/core/logger"
	"github.com/m3rciful/promobot/core/telegram/commands"
	tele "gopkg.in/telebot.v4"
)

func TestMain(m *testing.M) {
	// Registration warnings go through the wiring logger, which is only
	// set up by the bootstrap path in real binaries.
	logger.TWire = slog.New(slog.NewTextHandler(io.Discard, nil))
	os.Exit(m.Run())
}

func nopHandler(c tele.Context) error { return nil }

func TestRegistryLookupAndAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/get", commands.Command{
		Handler:     nopHandler,
		Description: "Look up a code",
		Aliases:     []string{"code"},
	})

	if _, _, ok := reg.LookupCommand("/get"); !ok {
		t.Fatal("lookup of /get failed")
	}
	key, _, ok := reg.LookupCommand("get")
	if !ok || key != "/get" {
		t.Fatalf("lookup without slash: key=%q ok=%v", key, ok)
	}
	key, _, ok = reg.LookupCommand("code")
	if !ok || key != "/get" {
		t.Fatalf("alias lookup: key=%q ok=%v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("/nope"); ok {
		t.Fatal("lookup of unknown command succeeded")
	}
}

func TestRegistryRejectsInvalidCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("get", commands.Command{Handler: nopHandler, Description: "no slash"})
	reg.RegisterCommand("/bare", commands.Command{Handler: nopHandler})
	reg.RegisterCommand("/nil", commands.Command{Description: "nil handler"})
	if got := len(reg.Commands()); got != 0 {
		t.Fatalf("registered %d invalid commands", got)
	}

	reg.RegisterCommand("/dup", commands.Command{Handler: nopHandler, Description: "first"})
	reg.RegisterCommand("/dup", commands.Command{Handler: nopHandler, Description: "second"})
	if _, cmd, _ := reg.LookupCommand("/dup"); cmd.Description != "first" {
		t.Fatalf("duplicate registration replaced the original: %q", cmd.Description)
	}
}

func TestRegistryListCommandsFiltersVisible(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/get", commands.Command{Handler: nopHandler, Description: "public"})
	reg.RegisterCommand("/add", commands.Command{Handler: nopHandler, Description: "admin", AdminOnly: true})
	reg.RegisterCommand("/version", commands.Command{Handler: nopHandler, Description: "hidden", Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/get" {
		t.Fatalf("visible commands = %+v, want only /get", visible)
	}
	if got := len(reg.ListCommands(false)); got != 3 {
		t.Fatalf("full list has %d entries, want 3", got)
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("confirm", nopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("confirm", nopHandler); err == nil {
		t.Fatal("duplicate callback registration succeeded")
	}
	if err := reg.RegisterCallback("", nopHandler); err == nil {
		t.Fatal("empty key registration succeeded")
	}
	if _, ok := reg.GetCallback("confirm"); !ok {
		t.Fatal("registered callback not found")
	}
	if _, ok := reg.GetCallback("other"); ok {
		t.Fatal("unknown callback found")
	}
}
