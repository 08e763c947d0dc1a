// Command paywith is a small CLI for exercising payment gateways from the
// terminal: initialize a payment and print the checkout URL, or verify an
// existing payment by reference.
//
// Secret keys are read from the environment (PAYWITH_PAYSTACK_SECRET_KEY,
// PAYWITH_FLUTTERWAVE_SECRET_KEY, PAYWITH_STRIPE_SECRET_KEY), optionally
// via a local .env file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/paywith/paywith/pkg/paywith"
)

func main() {
	gatewayName := flag.String("gateway", "paystack", "payment gateway: paystack, flutterwave or stripe")
	amount := flag.Float64("amount", 0, "amount in the gateway's expected unit (kobo for Paystack)")
	email := flag.String("email", "", "customer email address")
	currency := flag.String("currency", "", "ISO currency code (gateway default when empty)")
	redirect := flag.String("redirect", "", "URL the customer returns to after payment")
	reference := flag.String("reference", "", "payment reference (generated when empty)")
	verify := flag.Bool("verify", false, "verify the payment with -reference instead of initializing")
	timeout := flag.Duration("timeout", 30*time.Second, "gateway request timeout")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*gatewayName, *amount, *email, *currency, *redirect, *reference, *verify, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "paywith:", err)
		os.Exit(1)
	}
}

func run(gatewayName string, amount float64, email, currency, redirect, reference string, verify bool, timeout time.Duration) error {
	secretKey := secretKeyFor(gatewayName)
	if secretKey == "" {
		return fmt.Errorf("no secret key configured for %s, set PAYWITH_%s_SECRET_KEY", gatewayName, strings.ToUpper(gatewayName))
	}

	p, err := paywith.New(gatewayName, secretKey)
	if err != nil {
		return err
	}
	tx, err := p.Transaction()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verify {
		if reference == "" {
			return fmt.Errorf("-verify requires -reference")
		}
		if err := tx.Verify(ctx, reference); err != nil {
			return err
		}
		if !tx.Status() {
			fmt.Printf("verification failed (%d): %s\n", tx.StatusCode(), tx.Message())
			os.Exit(2)
		}
		fmt.Printf("reference: %s\n", tx.Reference())
		fmt.Printf("amount:    %.2f\n", tx.Amount())
		fmt.Printf("email:     %s\n", tx.Email())
		fmt.Printf("message:   %s\n", tx.Message())
		return nil
	}

	if err := tx.Initialize(ctx, paywith.Fields{
		Amount:      amount,
		Email:       email,
		Currency:    currency,
		Reference:   reference,
		RedirectURL: redirect,
	}); err != nil {
		return err
	}
	if !tx.Status() {
		fmt.Printf("initialization failed (%d): %s\n", tx.StatusCode(), tx.Message())
		os.Exit(2)
	}

	checkout, err := tx.Checkout()
	if err != nil {
		return err
	}
	fmt.Printf("reference: %s\n", tx.Reference())
	fmt.Printf("checkout:  %s\n", checkout)
	return nil
}

func secretKeyFor(gatewayName string) string {
	switch strings.ToLower(gatewayName) {
	case paywith.Paystack:
		return os.Getenv("PAYWITH_PAYSTACK_SECRET_KEY")
	case paywith.Flutterwave:
		return os.Getenv("PAYWITH_FLUTTERWAVE_SECRET_KEY")
	case paywith.Stripe:
		return os.Getenv("PAYWITH_STRIPE_SECRET_KEY")
	default:
		return ""
	}
}
