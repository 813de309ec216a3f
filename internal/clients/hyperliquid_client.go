package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	hyperliquid "github.com/sonirico/go-hyperliquid"
)

const mainnetAPIURL = "https://api.hyperliquid.xyz"

// NewHyperliquidInfo builds a Hyperliquid Info client. The SDK hangs the Info
// API off an Exchange, which needs a signing key even for read-only use.
func NewHyperliquidInfo(privateKeyHex string) (*hyperliquid.Info, error) {
	key := privateKeyHex
	if len(key) >= 2 && (key[:2] == "0x" || key[:2] == "0X") {
		key = key[2:]
	}

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, err
	}

	pub := privateKey.Public()
	pubECDSA, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error casting public key to ECDSA")
	}
	accountAddr := crypto.PubkeyToAddress(*pubECDSA).Hex()

	ex := hyperliquid.NewExchange(
		context.Background(),
		privateKey,
		mainnetAPIURL,
		nil,
		"",
		accountAddr,
		nil,
	)

	return ex.Info(), nil
}
