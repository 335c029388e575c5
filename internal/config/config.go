package config

// AppConfig holds the command's configuration, bound from flags, an
// optional config file and environment variables (prefix BKCRACK).
type AppConfig struct {
	// CipherFile is the raw ciphertext file path (-c), or, when CipherZip
	// is also set, the name of the entry to locate inside it.
	CipherFile string `mapstructure:"cipher"`
	// CipherZip is the ciphertext ZIP archive path (-C).
	CipherZip string `mapstructure:"cipher_zip"`

	// PlainFile is the raw plaintext file path (-p), or, when PlainZip is
	// also set, the name of the entry to locate inside it.
	PlainFile string `mapstructure:"plaintext"`
	// PlainZip is the plaintext ZIP archive path (-P).
	PlainZip string `mapstructure:"plaintext_zip"`

	// Offset is the signed offset of the plaintext relative to the
	// ciphertext payload, excluding the 12-byte encryption header (-o).
	Offset int `mapstructure:"offset"`
	// PlainSize caps the number of plaintext bytes consumed (-t). Zero
	// means no cap.
	PlainSize int `mapstructure:"plainsize"`

	// Exhaustive iterates every surviving Z candidate instead of
	// stopping at the first success (-e).
	Exhaustive bool `mapstructure:"exhaustive"`

	// Keys supplies the three 32-bit internal keys directly, skipping
	// cryptanalysis (-k X,Y,Z), as decimal or 0x-prefixed hex strings.
	Keys []string `mapstructure:"keys"`

	// DecipherOutput is the path keys are used to decrypt ciphertext
	// into (-d). Empty means only the keys are reported.
	DecipherOutput string `mapstructure:"decipher_output"`
	// Unzip additionally inflates the deciphered bytes as a raw DEFLATE
	// stream (-u).
	Unzip bool `mapstructure:"unzip"`

	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}
