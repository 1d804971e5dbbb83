package harness

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/mytoken/internal/chain"
	"github.com/roach88/mytoken/internal/ir"
)

var wasmHeader = []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

// nativeSection is the custom section naming the registered code an
// artifact stands for.
const nativeSection = "native"

// ErrNotWASM is returned for artifacts without a WebAssembly header.
var ErrNotWASM = errors.New("artifact is not a WebAssembly module")

// Artifact is a compiled contract.
type Artifact struct {
	Path string
	// CodeID selects the registered contract code.
	CodeID string
	// Hash is the hex sha256 of the artifact bytes.
	Hash string
}

// ReadArtifact reads and checks a compiled contract. The code id comes
// from the module's "native" custom section, or failing that from the
// file name without its extension.
func ReadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("read artifact: %w", err)
	}
	if !bytes.HasPrefix(data, wasmHeader) {
		return Artifact{}, fmt.Errorf("%s: %w", path, ErrNotWASM)
	}

	id, err := customSection(data[len(wasmHeader):], nativeSection)
	if err != nil {
		return Artifact{}, fmt.Errorf("%s: %w", path, err)
	}
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	sum := sha256.Sum256(data)
	return Artifact{Path: path, CodeID: id, Hash: hex.EncodeToString(sum[:])}, nil
}

// customSection returns the payload of the first custom section called
// name, or "" if there is none.
func customSection(module []byte, name string) (string, error) {
	for len(module) > 0 {
		id := module[0]
		size, n := binary.Uvarint(module[1:])
		if n <= 0 || uint64(len(module)-1-n) < size {
			return "", errors.New("truncated section")
		}
		body := module[1+n : 1+n+int(size)]
		module = module[1+n+int(size):]

		if id != 0 {
			continue
		}
		nameLen, m := binary.Uvarint(body)
		if m <= 0 || uint64(len(body)-m) < nameLen {
			return "", errors.New("truncated custom section name")
		}
		if string(body[m:m+int(nameLen)]) == name {
			return string(body[m+int(nameLen):]), nil
		}
	}
	return "", nil
}

// DeployOptions configures Deploy.
type DeployOptions struct {
	// Inline links the contract's eosio.code permission so it can send
	// inline actions on behalf of accounts that authorized its actions.
	Inline bool
	// Name fixes the contract account name instead of generating one.
	Name string
}

// Contract is a deployed contract.
type Contract struct {
	Name     ir.Name
	Account  *Account
	ABI      *ir.ABI
	Artifact Artifact
	h        *Harness
}

func (c *Contract) String() string { return c.Name.String() }

// Deploy creates a fresh account and deploys the artifact and ABI to it.
func (h *Harness) Deploy(ctx context.Context, artifactPath, abiPath string, opts DeployOptions) (*Contract, error) {
	art, err := ReadArtifact(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	if _, ok := h.registry.Lookup(art.CodeID); !ok {
		return nil, fmt.Errorf("deploy %s: no contract registered for code id %q", artifactPath, art.CodeID)
	}

	src, err := os.ReadFile(abiPath)
	if err != nil {
		return nil, fmt.Errorf("deploy: read ABI: %w", err)
	}
	abi, err := h.abis.Compile(abiPath, src)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", abiPath, err)
	}

	name := opts.Name
	if name == "" {
		name = h.contractName.Generate()
	}
	acct, err := h.CreateAccount(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	setcode, err := h.systemAction(chain.ActSetCode, ir.IRObject{
		"account":   ir.IRString(name),
		"code_id":   ir.IRString(art.CodeID),
		"code_hash": ir.IRString(art.Hash),
	})
	if err != nil {
		return nil, err
	}
	setabi, err := h.systemAction(chain.ActSetABI, ir.IRObject{
		"account": ir.IRString(name),
		"abi":     ir.IRString(src),
	})
	if err != nil {
		return nil, err
	}
	actions := []ir.Action{setcode, setabi}
	if opts.Inline {
		updateauth, err := h.systemAction(chain.ActUpdateAuth, ir.IRObject{
			"account":    ir.IRString(name),
			"permission": ir.IRString(ir.ActivePerm.String()),
			"eosio_code": ir.IRBool(true),
		})
		if err != nil {
			return nil, err
		}
		actions = append(actions, updateauth)
	}
	for i := range actions {
		actions[i].Authorization = []ir.PermissionLevel{acct.Active()}
	}

	if _, err := h.Push(ctx, actions...); err != nil {
		return nil, fmt.Errorf("deploy %s to %s: %w", art.CodeID, name, err)
	}
	h.logger.Debug("contract deployed",
		"account", name,
		"code_id", art.CodeID,
		"inline", opts.Inline)

	return &Contract{Name: acct.Name, Account: acct, ABI: abi, Artifact: art, h: h}, nil
}
