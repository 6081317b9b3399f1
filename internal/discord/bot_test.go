package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestPermissionChecker_IsStaff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		staffRoleID string
		inter       *discordgo.InteractionCreate
		want        bool
	}{
		{
			name:        "user with staff role",
			staffRoleID: "role-123",
			inter: &discordgo.InteractionCreate{
				Interaction: &discordgo.Interaction{
					Member: &discordgo.Member{
						Roles: []string{"role-456", "role-123", "role-789"},
					},
				},
			},
			want: true,
		},
		{
			name:        "user without staff role",
			staffRoleID: "role-123",
			inter: &discordgo.InteractionCreate{
				Interaction: &discordgo.Interaction{
					Member: &discordgo.Member{
						Roles: []string{"role-456", "role-789"},
					},
				},
			},
			want: false,
		},
		{
			name:        "administrator without staff role",
			staffRoleID: "role-123",
			inter: &discordgo.InteractionCreate{
				Interaction: &discordgo.Interaction{
					Member: &discordgo.Member{
						Roles:       []string{"role-456"},
						Permissions: discordgo.PermissionAdministrator,
					},
				},
			},
			want: true,
		},
		{
			name:        "empty staff role restricts to administrators",
			staffRoleID: "",
			inter: &discordgo.InteractionCreate{
				Interaction: &discordgo.Interaction{
					Member: &discordgo.Member{
						Roles: []string{"role-456"},
					},
				},
			},
			want: false,
		},
		{
			name:        "empty staff role allows administrators",
			staffRoleID: "",
			inter: &discordgo.InteractionCreate{
				Interaction: &discordgo.Interaction{
					Member: &discordgo.Member{
						Permissions: discordgo.PermissionAdministrator,
					},
				},
			},
			want: true,
		},
		{
			name:        "nil Member returns false",
			staffRoleID: "role-123",
			inter: &discordgo.InteractionCreate{
				Interaction: &discordgo.Interaction{Member: nil},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pc := NewPermissionChecker(tt.staffRoleID)
			if got := pc.IsStaff(tt.inter); got != tt.want {
				t.Errorf("IsStaff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandRouter_ApplicationCommands(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()

	cmd := &discordgo.ApplicationCommand{Name: "interview"}
	r.RegisterCommand("interview", cmd, func(s *discordgo.Session, i *discordgo.InteractionCreate) {})

	cmds := r.ApplicationCommands()
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0].Name != "interview" {
		t.Errorf("expected command name 'interview', got %q", cmds[0].Name)
	}
}

func TestCommandRouter_ApplicationCommands_Dedup(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()

	cmd := &discordgo.ApplicationCommand{Name: "interview"}
	r.RegisterCommand("interview/end", cmd, func(s *discordgo.Session, i *discordgo.InteractionCreate) {})
	r.RegisterCommand("interview/stats", cmd, func(s *discordgo.Session, i *discordgo.InteractionCreate) {})

	cmds := r.ApplicationCommands()
	if len(cmds) != 1 {
		t.Fatalf("expected 1 deduplicated command, got %d", len(cmds))
	}
}

func TestCommandRouter_RegisterHandler(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()
	called := false
	r.RegisterHandler("interview/end", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		called = true
	})

	// Handlers without a definition do not appear in ApplicationCommands.
	if cmds := r.ApplicationCommands(); len(cmds) != 0 {
		t.Errorf("expected 0 commands, got %d", len(cmds))
	}

	entry, ok := r.commands["interview/end"]
	if !ok {
		t.Fatal("expected handler to be registered")
	}
	entry.handler(nil, nil)
	if !called {
		t.Error("handler was not called")
	}
}

func TestInteractionKey(t *testing.T) {
	t.Parallel()

	plain := discordgo.ApplicationCommandInteractionData{Name: "interview"}
	if got := interactionKey(plain); got != "interview" {
		t.Errorf("interactionKey = %q, want interview", got)
	}

	sub := discordgo.ApplicationCommandInteractionData{
		Name: "interview",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "end", Type: discordgo.ApplicationCommandOptionSubCommand},
		},
	}
	if got := interactionKey(sub); got != "interview/end" {
		t.Errorf("interactionKey = %q, want interview/end", got)
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		member *discordgo.Member
		want   string
	}{
		{
			"nickname wins",
			&discordgo.Member{Nick: "Jo", User: &discordgo.User{GlobalName: "Jordan", Username: "jordan123"}},
			"Jo",
		},
		{
			"global name second",
			&discordgo.Member{User: &discordgo.User{GlobalName: "Jordan", Username: "jordan123"}},
			"Jordan",
		},
		{
			"username fallback",
			&discordgo.Member{User: &discordgo.User{Username: "jordan123"}},
			"jordan123",
		},
	}
	for _, tc := range cases {
		if got := displayName(tc.member); got != tc.want {
			t.Errorf("%s: displayName = %q, want %q", tc.name, got, tc.want)
		}
	}
}
