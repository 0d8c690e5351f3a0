// Command deip-keygen manages witness signing keys outside of the running
// daemon: generating a fresh key into an encrypted keystore, and reading back
// the address/signing key of an existing one for use in a genesis document or
// config file.
package main

import (
	"flag"
	"fmt"
	"os"

	"deipchain/cmd/internal/passphrase"
	"deipchain/crypto"
)

const (
	generateCommand = "generate-keystore"
	showCommand     = "show-address"
	defaultPassEnv  = "DEIP_WITNESS_PASS"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case generateCommand:
		runGenerate(os.Args[2:])
	case showCommand:
		runShow(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet(generateCommand, flag.ExitOnError)
	keystorePath := fs.String("keystore", "", "Output path for the generated keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	force := fs.Bool("force", false, "Overwrite an existing keystore file")
	fs.Parse(args)

	if err := generateKeystore(*keystorePath, *passEnv, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func generateKeystore(keystorePath, passEnv string, force bool) error {
	if keystorePath == "" {
		return fmt.Errorf("-keystore is required")
	}
	if !force {
		if _, err := os.Stat(keystorePath); err == nil {
			return fmt.Errorf("keystore file %s already exists (use -force to overwrite)", keystorePath)
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	passphrase, err := passphrase.NewSource(passEnv).Get()
	if err != nil {
		return err
	}

	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("failed to generate witness key: %w", err)
	}

	if err := crypto.SaveToKeystore(keystorePath, key, passphrase); err != nil {
		return fmt.Errorf("failed to write keystore: %w", err)
	}

	pub := key.PubKey()
	fmt.Printf("Wrote keystore to %s\n", keystorePath)
	fmt.Printf("Address:     %s\n", pub.Address())
	fmt.Printf("SigningKey:  %s\n", pub.CompressedHex())
	return nil
}

func runShow(args []string) {
	fs := flag.NewFlagSet(showCommand, flag.ExitOnError)
	keystorePath := fs.String("keystore", "", "Path to an existing keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	fs.Parse(args)

	if err := showAddress(*keystorePath, *passEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func showAddress(keystorePath, passEnv string) error {
	if keystorePath == "" {
		return fmt.Errorf("-keystore is required")
	}

	passphrase, err := passphrase.NewSource(passEnv).Get()
	if err != nil {
		return err
	}

	key, err := crypto.LoadFromKeystore(keystorePath, passphrase)
	if err != nil {
		return fmt.Errorf("failed to unlock keystore: %w", err)
	}

	pub := key.PubKey()
	fmt.Printf("Address:     %s\n", pub.Address())
	fmt.Printf("SigningKey:  %s\n", pub.CompressedHex())
	return nil
}

func usage() {
	fmt.Println("deip-keygen <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s   Generate a new witness signing key into an encrypted keystore\n", generateCommand)
	fmt.Printf("  %s       Print the address and signing key of an existing keystore\n", showCommand)
}
