// Package main provides the fusioncache CLI, a small tool for
// inspecting and manipulating a fusioncache disk tier from the shell.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/richardchien/fusioncache"
)

var (
	// Version as provided by goreleaser.
	Version = ""

	configFile string
	cacheDir   string
	maxSizeMB  int64
	valueKind  string

	rootCmd = &cobra.Command{
		Use:          "fusioncache",
		Short:        "Inspect and manipulate a fusioncache disk cache",
		SilenceUsage: true,
	}

	putCmd = &cobra.Command{
		Use:   "put KEY VALUE",
		Short: "Store a value (VALUE is text, JSON, or a file path for --kind bytes)",
		Args:  cobra.ExactArgs(2),
		RunE:  runPut,
	}

	getCmd = &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored for KEY",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}

	rmCmd = &cobra.Command{
		Use:   "rm KEY",
		Short: "Remove the entry for KEY",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}

	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry",
		Args:  cobra.NoArgs,
		RunE:  runClear,
	}

	statCmd = &cobra.Command{
		Use:   "stat",
		Short: "Show cache directory, entry count and size",
		Args:  cobra.NoArgs,
		RunE:  runStat,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: fusioncache.yaml in the standard config dirs)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "dir", "", "cache directory (default: the standard user cache dir)")
	rootCmd.PersistentFlags().Int64Var(&maxSizeMB, "max-size", 0, "cache capacity in MB")
	putCmd.Flags().StringVar(&valueKind, "kind", "string", "value kind: string, record, list or bytes")

	rootCmd.AddCommand(putCmd, getCmd, rmCmd, clearCmd, statCmd)

	viper.SetDefault("dir", "")
	viper.SetDefault("max_size_mb", 512)

	cobra.OnInitialize(loadConfig)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads fusioncache.yaml from the standard config
// directories, or the file given with --config.
func loadConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		scope := gap.NewScope(gap.User, "fusioncache")
		dirs, err := scope.ConfigDirs()
		if err == nil {
			for _, dir := range dirs {
				viper.AddConfigPath(dir)
			}
		}
		if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
			viper.AddConfigPath(filepath.Join(c, "fusioncache"))
		}
		viper.SetConfigName("fusioncache")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("fusioncache")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("could not parse configuration file", "err", err)
		}
	}
}

// openCache opens the disk cache named by flags and config.
func openCache() (*fusioncache.DiskCache, error) {
	dir := cacheDir
	if dir == "" {
		dir = viper.GetString("dir")
	}
	if dir == "" {
		var err error
		if dir, err = fusioncache.DefaultDiskCacheDir(); err != nil {
			return nil, err
		}
	}

	sizeMB := maxSizeMB
	if sizeMB == 0 {
		sizeMB = viper.GetInt64("max_size_mb")
	}

	return fusioncache.NewDiskCache(dir, sizeMB*1024*1024)
}

func runPut(_ *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	var value fusioncache.Value
	switch valueKind {
	case "string":
		value = fusioncache.String(raw)
	case "record":
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return fmt.Errorf("value is not a JSON object: %w", err)
		}
		value = fusioncache.Record(m)
	case "list":
		var l []any
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return fmt.Errorf("value is not a JSON array: %w", err)
		}
		value = fusioncache.List(l)
	case "bytes":
		data, err := os.ReadFile(raw)
		if err != nil {
			return fmt.Errorf("read value file: %w", err)
		}
		value = fusioncache.Bytes(data)
	default:
		return fmt.Errorf("unsupported kind %q", valueKind)
	}

	dc, err := openCache()
	if err != nil {
		return err
	}
	defer dc.Close()

	return dc.Put(key, value)
}

func runGet(_ *cobra.Command, args []string) error {
	dc, err := openCache()
	if err != nil {
		return err
	}
	defer dc.Close()

	v, ok := dc.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q not found", args[0])
	}

	switch v := v.(type) {
	case fusioncache.String:
		fmt.Println(string(v))
	case fusioncache.Bytes:
		os.Stdout.Write(v)
	case fusioncache.Record, fusioncache.List:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case fusioncache.Image:
		b := v.Bounds()
		fmt.Printf("image %dx%d\n", b.Dx(), b.Dy())
	case fusioncache.Blob:
		fmt.Printf("%v\n", v.V)
	}
	return nil
}

func runRemove(_ *cobra.Command, args []string) error {
	dc, err := openCache()
	if err != nil {
		return err
	}
	defer dc.Close()

	return dc.Remove(args[0])
}

func runClear(_ *cobra.Command, _ []string) error {
	dc, err := openCache()
	if err != nil {
		return err
	}
	defer dc.Close()

	return dc.Clear()
}

func runStat(_ *cobra.Command, _ []string) error {
	dc, err := openCache()
	if err != nil {
		return err
	}
	defer dc.Close()

	fmt.Printf("directory: %s\n", dc.Dir())
	fmt.Printf("entries:   %d\n", dc.Len())
	fmt.Printf("size:      %s of %s\n",
		humanize.IBytes(uint64(dc.Size())),
		humanize.IBytes(uint64(dc.MaxSize())))
	return nil
}
