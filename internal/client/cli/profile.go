package cli

import (
	"context"
	"fmt"
	"strings"

	pkgapi "github.com/iudanet/storefront/pkg/api"
)

func (c *Cli) runMe(ctx context.Context) error {
	user, err := c.authService.Me(ctx)
	if err != nil {
		return err
	}
	c.printUser(user)
	return nil
}

func (c *Cli) runRename(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		var err error
		name, err = c.io.ReadInput("New name: ")
		if err != nil {
			return fmt.Errorf("failed to read name: %w", err)
		}
	}

	user, err := c.authService.UpdateProfile(ctx, name)
	if err != nil {
		return err
	}

	c.io.Println("✓ Profile updated")
	c.printUser(user)
	return nil
}

func (c *Cli) printUser(user *pkgapi.UserResponse) {
	c.io.Printf("ID: %s\n", user.ID)
	c.io.Printf("Name: %s\n", user.Name)
	c.io.Printf("Email: %s\n", user.Email)
	c.io.Printf("Email verified: %t\n", user.EmailVerified)
}
