package gamenight

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/pkg/keylock"
)

type CommandHandler func(ctx context.Context, client *Client, event *InteractionCreateEvent) error

type Command struct {
	Definition discord.ApplicationCommand
	Handler    CommandHandler

	// GuildSerialized runs invocations in the same guild one at a time.
	GuildSerialized bool
}

// CommandRouter maps application command names to handlers. Commands are
// registered before the client opens and the set is fixed afterwards.
type CommandRouter struct {
	mu       sync.RWMutex
	commands map[string]Command
	sealed   bool

	locks *keylock.Locks[discord.Snowflake]
}

func NewCommandRouter(locks *keylock.Locks[discord.Snowflake]) *CommandRouter {
	return &CommandRouter{
		commands: make(map[string]Command),
		locks:    locks,
	}
}

func (r *CommandRouter) Register(commands ...Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrCommandsSealed
	}

	for _, command := range commands {
		name := command.Definition.Name

		if name == "" || command.Handler == nil {
			return ErrInvalidCommand
		}

		if _, ok := r.commands[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
		}

		r.commands[name] = command
	}

	return nil
}

// Seal stops further registration.
func (r *CommandRouter) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *CommandRouter) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	command, ok := r.commands[name]

	return command, ok
}

// Definitions returns every registered command ordered by name.
func (r *CommandRouter) Definitions() []discord.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definitions := make([]discord.ApplicationCommand, 0, len(r.commands))
	for _, command := range r.commands {
		definitions = append(definitions, command.Definition)
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Name < definitions[j].Name
	})

	return definitions
}

// Dispatch runs the command named by an application command interaction.
// handled is false for other interactions and for unknown commands, in which
// case err is ErrUnknownCommand.
func (r *CommandRouter) Dispatch(ctx context.Context, client *Client, event *InteractionCreateEvent) (handled bool, err error) {
	if event.Type != discord.InteractionTypeApplicationCommand || event.Data == nil {
		return false, nil
	}

	command, ok := r.Get(event.Data.Name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownCommand, event.Data.Name)
	}

	if command.GuildSerialized && !event.GuildID.IsNil() {
		unlock, err := r.locks.Lock(ctx, event.GuildID)
		if err != nil {
			return true, err
		}

		defer unlock()
	}

	return true, command.Handler(ctx, client, event)
}

// SyncCommands overwrites the remote command set with the registered
// commands. They are synced to the configured guild when one is set.
func (c *Client) SyncCommands(ctx context.Context) ([]discord.ApplicationCommand, error) {
	return c.BulkOverwriteCommands(ctx, c.Configuration.GuildID, c.Commands.Definitions())
}
