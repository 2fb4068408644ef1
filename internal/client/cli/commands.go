package cli

import (
	"context"
	"fmt"
)

// Run выполняет команду. args не включают имя команды.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "me":
		return c.runMe(ctx)
	case "rename":
		return c.runRename(ctx, args)
	case "verify":
		return c.runVerify(ctx, args)
	case "forgot":
		return c.runForgot(ctx, args)
	case "reset":
		return c.runReset(ctx, args)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}
