package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lyadalachanchu/voice4evs/config"
	"github.com/Lyadalachanchu/voice4evs/pkg/cmd/cli"
)

var cfgFile string
var c = new(config.Config)
var cmdHandler = cli.NewHandler(c)

var (
	Version   = "dev-master"
	BuildTime = "undefined"
	GitHash   = "undefined"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "csms",
	Short: "Charge point session manager",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cmd.UsageString())
		os.Exit(2)
	},
}

// Execute runs the csms and is called by main.main()
func Execute() {
	c.BuildTime = BuildTime
	c.BuildVersion = Version
	c.BuildHash = GitHash

	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	} else {
		path := absPathify("$HOME")
		if _, err := os.Stat(filepath.Join(path, ".csms.yml")); err != nil {
			_, _ = os.Create(filepath.Join(path, ".csms.yml"))
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(".csms") // name of config file (without extension)
		viper.AddConfigPath("$HOME") // adding home directory as first search path
	}
	viper.AutomaticEnv() // read in environment variables that match

	// Fetch settings
	viper.BindEnv("PORT")
	viper.SetDefault("PORT", 8080)

	viper.BindEnv("HOST")
	viper.SetDefault("HOST", "")

	viper.BindEnv("DATABASE_URL")
	viper.SetDefault("DATABASE_URL", "")

	viper.BindEnv("NATS_URL")
	viper.SetDefault("NATS_URL", "")

	viper.BindEnv("HEARTBEAT_INTERVAL")
	viper.SetDefault("HEARTBEAT_INTERVAL", 60)

	viper.BindEnv("CALL_TIMEOUT")
	viper.SetDefault("CALL_TIMEOUT", 16)

	viper.BindEnv("ALLOW_GENERIC_CONFIG")
	viper.SetDefault("ALLOW_GENERIC_CONFIG", false)

	viper.BindEnv("ALLOWED_CONFIG_KEYS")
	viper.SetDefault("ALLOWED_CONFIG_KEYS",
		"ChargingProfileMaxStackLevel,ChargingScheduleMaxPeriods,MaxChargingProfilesInstalled,HeartbeatInterval,MeterValueSampleInterval,PowerLimit")

	viper.BindEnv("POWER_LIMIT_MIN_KW")
	viper.SetDefault("POWER_LIMIT_MIN_KW", 1.0)

	viper.BindEnv("POWER_LIMIT_MAX_KW")
	viper.SetDefault("POWER_LIMIT_MAX_KW", 22.0)

	viper.BindEnv("RATE_LIMIT_WINDOW")
	viper.SetDefault("RATE_LIMIT_WINDOW", 60)

	viper.BindEnv("RATE_LIMIT_MAX_CONFIG")
	viper.SetDefault("RATE_LIMIT_MAX_CONFIG", 5)

	viper.BindEnv("RATE_LIMIT_MAX_POWER")
	viper.SetDefault("RATE_LIMIT_MAX_POWER", 5)

	viper.BindEnv("AUDIT_ENABLED")
	viper.SetDefault("AUDIT_ENABLED", true)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf(`Config file not found because "%s"`, err)
		fmt.Println("")
	}

	if err := viper.Unmarshal(c); err != nil {
		log.Fatal(fmt.Sprintf("Could not read config because %s.", err))
	}
}

func absPathify(inPath string) string {
	if strings.HasPrefix(inPath, "$HOME") {
		inPath = userHomeDir() + inPath[5:]
	}

	if strings.HasPrefix(inPath, "$") {
		end := strings.Index(inPath, string(os.PathSeparator))
		inPath = os.Getenv(inPath[1:end]) + inPath[end:]
	}

	if filepath.IsAbs(inPath) {
		return filepath.Clean(inPath)
	}

	p, err := filepath.Abs(inPath)
	if err == nil {
		return filepath.Clean(p)
	}
	return ""
}

func userHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}
