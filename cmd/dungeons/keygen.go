// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"

	"github.com/mr-tron/base58"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// keyReader supplies key material. Tests replace it.
var keyReader io.Reader = rand.Reader

// NewKeygenCmd creates the keygen subcommand.
func NewKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ed25519 signing key",
		Long: `Generate an ed25519 key pair for signing API requests. The public key
is the player's wallet address; keep the secret key private.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pub, priv, err := ed25519.GenerateKey(keyReader)
			if err != nil {
				return oops.Code("KEYGEN_FAILED").Wrap(err)
			}
			cmd.Println("public: " + base58.Encode(pub))
			cmd.Println("secret: " + base58.Encode(priv))
			return nil
		},
	}
}
