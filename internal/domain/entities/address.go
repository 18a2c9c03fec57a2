package entities

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AddressKind distinguishes the two native address representations the
// relayer deals with. An Address never mixes the two: callers key
// cross-chain maps by NativeBytes() but must separately check Kind
// matches the chain family they expect, since two different-kind
// addresses can theoretically share a NativeBytes encoding only if one
// truncates, which Address's constructors never allow.
type AddressKind int

const (
	AddressKindEvm AddressKind = iota
	AddressKindSvm
)

func (k AddressKind) String() string {
	if k == AddressKindSvm {
		return "svm"
	}
	return "evm"
}

// Address is the sum-type representation of an on-chain account: a
// 20-byte EVM address or a 32-byte SVM (Solana-style) address. Construct
// with NewEvmAddress/NewSvmAddress; the zero value is not a valid
// Address.
type Address struct {
	kind AddressKind
	evm  common.Address
	svm  [32]byte
}

// NewEvmAddress builds an Address from a hex-encoded 20-byte EVM address.
func NewEvmAddress(hexAddr string) Address {
	return Address{kind: AddressKindEvm, evm: common.HexToAddress(hexAddr)}
}

// NewEvmAddressFromBytes builds an Address from raw EVM bytes.
func NewEvmAddressFromBytes(b common.Address) Address {
	return Address{kind: AddressKindEvm, evm: b}
}

// NewSvmAddress builds an Address from a base58-encoded 32-byte SVM
// public key. Decoding uses the teacher's own base58 codec
// (internal/usecases.base58Decode lineage, reimplemented here since
// entities must not import usecases); no external base58 library exists
// anywhere in the reference corpus for this domain.
func NewSvmAddress(base58Addr string) (Address, error) {
	raw := base58Decode(base58Addr)
	if len(raw) == 0 {
		return Address{}, fmt.Errorf("invalid base58 svm address: %s", base58Addr)
	}
	var out [32]byte
	if len(raw) > 32 {
		return Address{}, fmt.Errorf("invalid base58 svm address: %s", base58Addr)
	}
	copy(out[32-len(raw):], raw)
	return Address{kind: AddressKindSvm, svm: out}, nil
}

// NewSvmAddressFromBytes builds an Address from raw 32-byte SVM bytes.
func NewSvmAddressFromBytes(b [32]byte) Address {
	return Address{kind: AddressKindSvm, svm: b}
}

// Kind reports which native representation this Address holds.
func (a Address) Kind() AddressKind {
	return a.kind
}

// IsZero reports whether this Address was never constructed via one of
// the New* functions.
func (a Address) IsZero() bool {
	if a.kind == AddressKindEvm {
		return a.evm == (common.Address{})
	}
	return a.svm == [32]byte{}
}

// NativeBytes returns the address in its native encoding: 20 bytes for
// EVM, 32 bytes for SVM. Cross-chain maps key by this value, but callers
// must additionally verify Kind() matches the expected chain family
// before treating two NativeBytes as comparable identities.
func (a Address) NativeBytes() []byte {
	if a.kind == AddressKindEvm {
		return a.evm.Bytes()
	}
	out := make([]byte, 32)
	copy(out, a.svm[:])
	return out
}

// ToNative returns a stable string key suitable for map keys, combining
// kind and native bytes so an EVM and an SVM address never collide.
func (a Address) ToNative() string {
	return fmt.Sprintf("%s:%s", a.kind, hex.EncodeToString(a.NativeBytes()))
}

// Eq reports whether two addresses represent the same account: same kind
// and same native bytes.
func (a Address) Eq(other Address) bool {
	return a.kind == other.kind && a.ToNative() == other.ToNative()
}

// String renders the address in its conventional textual form: 0x-hex
// for EVM, base58 for SVM.
func (a Address) String() string {
	if a.kind == AddressKindEvm {
		return a.evm.Hex()
	}
	return base58Encode(a.svm[:])
}

// EvmAddress returns the underlying common.Address; callers must check
// Kind() == AddressKindEvm first.
func (a Address) EvmAddress() common.Address {
	return a.evm
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func base58Encode(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	x := new(big.Int).SetBytes(data)
	base := big.NewInt(58)
	mod := new(big.Int)
	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for _, b := range data {
		if b != 0 {
			break
		}
		out = append(out, base58Alphabet[0])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58Decode(s string) []byte {
	if s == "" {
		return nil
	}
	index := map[rune]int{}
	for i, c := range base58Alphabet {
		index[c] = i
	}
	x := big.NewInt(0)
	base := big.NewInt(58)
	for _, c := range s {
		val, ok := index[c]
		if !ok {
			return nil
		}
		x.Mul(x, base)
		x.Add(x, big.NewInt(int64(val)))
	}
	decoded := x.Bytes()
	leadingOnes := 0
	for _, c := range s {
		if c != '1' {
			break
		}
		leadingOnes++
	}
	if leadingOnes > 0 {
		out := make([]byte, leadingOnes+len(decoded))
		copy(out[leadingOnes:], decoded)
		return out
	}
	return decoded
}
