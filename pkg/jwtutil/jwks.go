package jwtutil

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"
)

// JWK is a single JSON Web Key as served from the discovery endpoint.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSDocument is the body of /.well-known/jwks.json. Keys is an empty
// array, never null, when no public key is configured.
type JWKSDocument struct {
	Keys []JWK `json:"keys"`
}

func newRSAJWK(pub *rsa.PublicKey, kid string) JWK {
	return JWK{
		Kty: "RSA",
		Kid: kid,
		Use: "sig",
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}
