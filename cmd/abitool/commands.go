package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	flag "github.com/spf13/pflag"

	"seal/pkg/codec"
	"seal/pkg/domain"
)

var errUsage = errors.New("usage: abitool encode|decode|profile-id|sign ...")

func encode(kind string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("encode "+kind, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		nonce    = fs.Uint64("nonce", 0, "profile nonce")
		name     = fs.String("name", "", "profile name")
		members  = fs.StringSlice("members", nil, "profile members")
		profile  = fs.String("profile", "", "profile id (bytes32 hex)")
		course   = fs.String("course", "", "course template address")
		managers = fs.StringSlice("managers", nil, "manager addresses")
		mint     = fs.Bool("mint", false, "mint instead of create")
		courseID = fs.Uint64("course-id", 0, "course or activity id")
		account  = fs.String("account", "", "recipient override")
		credits  = fs.Uint64("credits", 0, "activity credits")
		metadata = fs.StringSlice("metadata", nil, "course metadata entries")
		address  = fs.String("address", "", "recipient address")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch kind {
	case "profile":
		var m []common.Address
		if m, err = parseAddresses(*members); err != nil {
			return err
		}
		data, err = codec.EncodeProfileCreation(codec.ProfileCreation{Nonce: *nonce, Name: *name, Members: m})
	case "strategy", "activity":
		var s codec.StrategyData
		if s, err = strategyData(*profile, *course, *managers, *mint, *courseID, *account); err != nil {
			return err
		}
		if kind == "strategy" {
			data, err = codec.EncodeStrategyData(s)
		} else {
			data, err = codec.EncodeActivityData(codec.ActivityData{StrategyData: s, Credits: *credits})
		}
	case "course":
		var (
			id domain.ProfileID
			m  []common.Address
		)
		if id, err = domain.ParseProfileID(*profile); err != nil {
			return err
		}
		if m, err = parseAddresses(*managers); err != nil {
			return err
		}
		data, err = codec.EncodeCourseDefinition(codec.CourseDefinition{ProfileID: id, Managers: m, Metadata: *metadata})
	case "recipient":
		var a common.Address
		if a, err = domain.ParseAddress(*address); err != nil {
			return err
		}
		data = codec.EncodeRecipient(a)
	default:
		return fmt.Errorf("unknown payload %q", kind)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hexutil.Encode(data))
	return err
}

func decode(kind, hexData string, out io.Writer) error {
	data, err := hexutil.Decode(strings.TrimSpace(hexData))
	if err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	var v any
	switch kind {
	case "profile":
		v, err = codec.DecodeProfileCreation(data)
	case "strategy":
		v, err = codec.DecodeStrategyData(data)
	case "activity":
		v, err = codec.DecodeActivityData(data)
	case "course":
		v, err = codec.DecodeCourseDefinition(data)
	case "recipient":
		v, err = codec.RecipientAddress(data)
	default:
		return fmt.Errorf("unknown payload %q", kind)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func profileID(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("profile-id", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	nonce := fs.Uint64("nonce", 0, "profile nonce")
	owner := fs.String("owner", "", "profile owner (the attester)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := domain.ParseAddress(*owner)
	if err != nil {
		return err
	}
	id := domain.DeriveProfileID(*nonce, addr)
	_, err = fmt.Fprintln(out, id.String())
	return err
}

// sign personal_signs a message, as a wallet would for POST /auth/token.
func sign(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	privKey := fs.String("privkey", "", "hex private key")
	message := fs.String("message", "", "message to sign")
	messageFile := fs.String("message-file", "", "read the message from a file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(*privKey, "0x"))
	if err != nil {
		return fmt.Errorf("privkey: %w", err)
	}
	msg := *message
	if *messageFile != "" {
		raw, err := os.ReadFile(*messageFile)
		if err != nil {
			return err
		}
		msg = string(raw)
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	if err != nil {
		return err
	}
	sig[crypto.RecoveryIDOffset] += 27
	_, err = fmt.Fprintln(out, hexutil.Encode(sig))
	return err
}

func strategyData(profile, course string, managers []string, mint bool, id uint64, account string) (codec.StrategyData, error) {
	pid, err := domain.ParseProfileID(profile)
	if err != nil {
		return codec.StrategyData{}, err
	}
	s := codec.StrategyData{ProfileID: pid, IsMint: mint, CourseID: id}
	if course != "" {
		if s.Course, err = domain.ParseAddress(course); err != nil {
			return codec.StrategyData{}, err
		}
	}
	if account != "" {
		if s.Account, err = domain.ParseAddress(account); err != nil {
			return codec.StrategyData{}, err
		}
	}
	if s.Managers, err = parseAddresses(managers); err != nil {
		return codec.StrategyData{}, err
	}
	return s, nil
}

func parseAddresses(raw []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(raw))
	for _, r := range raw {
		a, err := domain.ParseAddress(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
