// Package securebag encrypts selected fields of data bag items at rest.
//
// An item is a nested, ordered key-value Document. Protected fields are
// replaced by self-contained envelopes that need only the shared secret to
// open; everything else stays readable.
//
// # Formats
//
// Items are stored in one of three formats:
//
//   - plain: the document as-is
//   - encrypted: the legacy flat format, where the whole document minus id
//     is one envelope
//   - nested: each protected value is an envelope, and a _metadata key
//     lists the encrypted keys
//
// Loading detects the format unless one is given. Saving keeps the loaded
// format unless another is configured; plain and new items are saved nested.
//
// # Envelopes
//
//	{"encrypted_data": "<base64>", "iv": "<base64>", "version": 1, "cipher": "aes-256-cbc"}
//
// The key is the SHA-256 digest of the secret and every envelope gets a
// fresh IV. Strings are encrypted as their bytes; any other value is
// encrypted as {"json_wrapper": value} so its type survives.
//
// # Basic Usage
//
//	cfg := securebag.Config{
//	    SecretLocation: "/etc/chef/encrypted_data_bag_secret",
//	    Resolver:       resolve.Auto{},
//	    EncryptedKeys:  []string{"password"},
//	}
//
//	item, _ := securebag.Load(ctx, raw, cfg)
//	item.Plaintext().Set("password", "rotated")
//	out, _ := item.Save(ctx)
//
// Keys that were encrypted when an item was loaded stay encrypted on save
// without being listed again.
//
// # Ciphers
//
//   - aes-256-cbc (default)
//   - aes-256-gcm
//   - chacha20-poly1305
//
// # Codec Providers
//
// The following codecs preserve Document key order:
//
//   - json - JSON encoding (application/json)
//   - yaml - YAML encoding (application/yaml)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - bson - BSON encoding (application/bson)
//
// # Stores and Secrets
//
// Client loads and saves items through an ItemStore (store/memory,
// store/badger). Secrets come from a SecretResolver (resolve.File,
// resolve.HTTP, resolve.Keeper, resolve.Auto). Package config builds both
// from SECUREBAG_* environment variables.
package securebag
