package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runVerify(ctx context.Context, args []string) error {
	token, err := c.tokenArg(args, "Verification token: ")
	if err != nil {
		return err
	}

	msg, err := c.authService.VerifyEmail(ctx, token)
	if err != nil {
		return err
	}

	c.io.Printf("✓ %s\n", msg)
	return nil
}

func (c *Cli) runForgot(ctx context.Context, args []string) error {
	email, err := c.tokenArg(args, "Email: ")
	if err != nil {
		return err
	}

	msg, err := c.authService.RequestPasswordReset(ctx, email)
	if err != nil {
		return err
	}

	c.io.Println(msg)
	return nil
}

func (c *Cli) runReset(ctx context.Context, args []string) error {
	token, err := c.tokenArg(args, "Reset token: ")
	if err != nil {
		return err
	}

	password, err := c.io.ReadPassword("New password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm new password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	msg, err := c.authService.ResetPassword(ctx, token, password, confirm)
	if err != nil {
		return err
	}

	c.io.Printf("✓ %s\n", msg)
	c.io.Println("All sessions were signed out. Run 'storefront login' with the new password.")
	return nil
}
