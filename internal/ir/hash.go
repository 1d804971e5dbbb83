package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTransaction = "mytoken/transaction/v1"
	DomainSigning     = "mytoken/signing/v1"
	DomainTrace       = "mytoken/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return h.Sum(nil)
}

// transactionObject is the canonical form of a transaction. Signatures are
// excluded: the ID identifies what is executed, not who signed it.
func transactionObject(tx Transaction) IRObject {
	actions := make(IRArray, len(tx.Actions))
	for i, act := range tx.Actions {
		auth := make(IRArray, len(act.Authorization))
		for j, p := range act.Authorization {
			auth[j] = IRObject{
				"actor":      IRString(p.Actor.String()),
				"permission": IRString(p.Permission.String()),
			}
		}
		actions[i] = IRObject{
			"account":       IRString(act.Account.String()),
			"name":          IRString(act.Name.String()),
			"authorization": auth,
			"data":          IRString(hex.EncodeToString(act.Data)),
		}
	}
	return IRObject{
		"nonce":   IRInt(tx.Nonce),
		"actions": actions,
	}
}

// TransactionID computes the content-addressed ID of a transaction.
func TransactionID(tx Transaction) (string, error) {
	canonical, err := MarshalCanonical(transactionObject(tx))
	if err != nil {
		return "", fmt.Errorf("TransactionID: failed to marshal: %w", err)
	}
	return hex.EncodeToString(hashWithDomain(DomainTransaction, canonical)), nil
}

// SigningDigest returns the 32-byte digest authorizers sign.
func SigningDigest(tx Transaction) ([]byte, error) {
	canonical, err := MarshalCanonical(transactionObject(tx))
	if err != nil {
		return nil, fmt.Errorf("SigningDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSigning, canonical), nil
}

// TraceDigest hashes the observable effects of a receipt: each trace's
// receiver, action, authorization, decoded data and position. Replays of the
// same log produce the same digest.
func TraceDigest(r TransactionReceipt) (string, error) {
	traces := make(IRArray, len(r.ActionTraces))
	for i, tr := range r.ActionTraces {
		auth := make(IRArray, len(tr.Authorization))
		for j, p := range tr.Authorization {
			auth[j] = IRString(p.String())
		}
		data := tr.Data
		if data == nil {
			data = IRObject{}
		}
		traces[i] = IRObject{
			"ordinal":  IRInt(tr.Ordinal),
			"creator":  IRInt(tr.CreatorOrdinal),
			"depth":    IRInt(tr.Depth),
			"receiver": IRString(tr.Receiver.String()),
			"account":  IRString(tr.Account.String()),
			"name":     IRString(tr.Name.String()),
			"auth":     auth,
			"data":     data,
		}
	}
	canonical, err := MarshalCanonical(IRObject{
		"id":     IRString(r.ID),
		"status": IRString(r.Status),
		"traces": traces,
	})
	if err != nil {
		return "", fmt.Errorf("TraceDigest: failed to marshal: %w", err)
	}
	return hex.EncodeToString(hashWithDomain(DomainTrace, canonical)), nil
}

// MustTransactionID is like TransactionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTransactionID(tx Transaction) string {
	id, err := TransactionID(tx)
	if err != nil {
		panic(err)
	}
	return id
}
