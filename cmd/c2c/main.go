// 命令行入口：离线查询坐标所属国家，与服务共用配置与栅格快照
package main

import (
	"os"
	"strconv"
	"strings"

	"coord2country/internal/config"
	"coord2country/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "c2c",
	Short:         "Offline reverse geocoding of coordinates to countries",
	Long:          "Resolves latitude/longitude pairs to ISO 3166-1 alpha-2 codes and Wikidata IDs using the bundled grayscale country raster.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load(".env")
		logger.Setup()
		c, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding countries-8bitgray.png and countries.csv")
	rootCmd.PersistentFlags().Int("max-radius", 0, "ring search radius cap in pixels (0 = raster diagonal)")
}

// valueFlags 需要携带参数值的选项
var valueFlags = map[string]bool{"--data-dir": true, "--max-radius": true, "--lang": true, "-l": true}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// 文档注释：整理命令行参数
// 背景：南纬与西经为负数，pflag 会把 "-33.9" 当作短选项解析；出现负数参数时，
// 将选项前移并在位置参数前插入 "--"。
// 约束：首个位置参数视为子命令名，保持在 "--" 之前。
func normalizeArgs(args []string) []string {
	var flags, pos []string
	neg := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			pos = append(pos, args[i+1:]...)
			break
		}
		if isNumber(a) {
			neg = neg || strings.HasPrefix(a, "-")
			pos = append(pos, a)
			continue
		}
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
			if !strings.Contains(a, "=") && valueFlags[a] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
			continue
		}
		pos = append(pos, a)
	}
	if !neg || len(pos) == 0 {
		return args
	}
	out := append([]string{pos[0]}, flags...)
	out = append(out, "--")
	return append(out, pos[1:]...)
}

func main() {
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("error:", err)
		os.Exit(1)
	}
}
