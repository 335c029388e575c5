package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/bkcrack/internal/bkcrack"
	"github.com/ossyrian/bkcrack/internal/config"
	"github.com/ossyrian/bkcrack/internal/logging"
	"github.com/ossyrian/bkcrack/internal/recovery"
	"github.com/ossyrian/bkcrack/internal/ziparchive"
)

var (
	cfgFile string
	cfg     *config.AppConfig
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bkcrack",
	Short: "Recover the internal keys of the traditional PKZIP stream cipher from known plaintext",
	RunE:  run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	rootCmd.Flags().StringP("cipher", "c", "", "ciphertext file, or entry name within -C")
	rootCmd.Flags().StringP("cipher-zip", "C", "", "ciphertext zip archive")
	rootCmd.Flags().StringP("plaintext", "p", "", "plaintext file, or entry name within -P")
	rootCmd.Flags().StringP("plaintext-zip", "P", "", "plaintext zip archive")
	rootCmd.Flags().IntP("offset", "o", 0, "signed offset of the plaintext relative to the ciphertext payload")
	rootCmd.Flags().IntP("plainsize", "t", 0, "maximum bytes of plaintext to consume (0 = no cap)")
	rootCmd.Flags().BoolP("exhaustive", "e", false, "iterate all surviving Z candidates instead of stopping at the first success")
	rootCmd.Flags().StringSliceP("keys", "k", nil, "supply the three internal keys directly (X,Y,Z), skipping cryptanalysis")
	rootCmd.Flags().StringP("decipher-output", "d", "", "decipher ciphertext into this file once keys are known")
	rootCmd.Flags().BoolP("unzip", "u", false, "inflate the deciphered bytes as a raw DEFLATE stream")

	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stdout and file)")

	viper.BindPFlag("cipher", rootCmd.Flags().Lookup("cipher"))
	viper.BindPFlag("cipher_zip", rootCmd.Flags().Lookup("cipher-zip"))
	viper.BindPFlag("plaintext", rootCmd.Flags().Lookup("plaintext"))
	viper.BindPFlag("plaintext_zip", rootCmd.Flags().Lookup("plaintext-zip"))
	viper.BindPFlag("offset", rootCmd.Flags().Lookup("offset"))
	viper.BindPFlag("plainsize", rootCmd.Flags().Lookup("plainsize"))
	viper.BindPFlag("exhaustive", rootCmd.Flags().Lookup("exhaustive"))
	viper.BindPFlag("keys", rootCmd.Flags().Lookup("keys"))
	viper.BindPFlag("decipher_output", rootCmd.Flags().Lookup("decipher-output"))
	viper.BindPFlag("unzip", rootCmd.Flags().Lookup("unzip"))
	viper.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.Flags().Lookup("log-output-dir"))
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bkcrack"))
		}
		viper.AddConfigPath("/etc/bkcrack/bkcrack")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("BKCRACK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// readBytes returns the raw bytes of rawPath. When zipPath is non-empty,
// rawPath instead names the entry to locate inside the archive at
// zipPath, and the entry's raw (still-compressed, if any) bytes are
// returned.
func readBytes(rawPath, zipPath string) ([]byte, error) {
	if zipPath == "" {
		return os.ReadFile(rawPath)
	}

	f, err := os.Open(zipPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", zipPath, err)
	}
	defer f.Close()

	_, data, err := ziparchive.ReadEntry(f, rawPath)
	if err != nil {
		return nil, fmt.Errorf("locating %q in %s: %w", rawPath, zipPath, err)
	}
	return data, nil
}

// parseKey parses a decimal or 0x-prefixed hex string as a uint32.
func parseKey(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid key value %q: %w", s, err)
	}
	return uint32(v), nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg = &config.AppConfig{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}

	ciphertext, err := readBytes(cfg.CipherFile, cfg.CipherZip)
	if err != nil {
		return fmt.Errorf("reading ciphertext: %w", err)
	}

	var keys bkcrack.Keys

	if len(cfg.Keys) > 0 {
		if len(cfg.Keys) != 3 {
			return fmt.Errorf("-k requires exactly three values (X, Y, Z), got %d", len(cfg.Keys))
		}
		if cfg.DecipherOutput == "" {
			return fmt.Errorf("-k requires -d")
		}

		x, err := parseKey(cfg.Keys[0])
		if err != nil {
			return err
		}
		y, err := parseKey(cfg.Keys[1])
		if err != nil {
			return err
		}
		z, err := parseKey(cfg.Keys[2])
		if err != nil {
			return err
		}
		keys.SetKeys(x, y, z)
	} else {
		plaintext, err := readBytes(cfg.PlainFile, cfg.PlainZip)
		if err != nil {
			return fmt.Errorf("reading plaintext: %w", err)
		}

		d, err := bkcrack.NewData(plaintext, ciphertext, cfg.Offset, cfg.PlainSize)
		if err != nil {
			return fmt.Errorf("preparing known-plaintext data: %w", err)
		}

		found, stats, err := recovery.FindKeys(context.Background(), d, cfg.Exhaustive)
		if err != nil {
			return fmt.Errorf("recovering keys: %w", err)
		}
		keys = found

		fmt.Printf("generated %d candidates, %d survived reduction at index %d\n",
			stats.CandidatesGenerated, stats.CandidatesSurviving, stats.ReductionIndex)
	}

	fmt.Printf("keys: %#08x %#08x %#08x\n", keys.X, keys.Y, keys.Z)

	if cfg.DecipherOutput != "" {
		out, err := os.Create(cfg.DecipherOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", cfg.DecipherOutput, err)
		}
		defer out.Close()

		if err := recovery.Decipher(keys, bytes.NewReader(ciphertext), out, cfg.Unzip); err != nil {
			return fmt.Errorf("deciphering: %w", err)
		}
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
