// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("upstream.authurl", "https://oauth.iracing.com/oauth2/token")
	viper.SetDefault("upstream.apiurl", "https://members-ng.iracing.com/data")
	viper.SetDefault("upstream.clientid", "regbot")
	viper.SetDefault("upstream.timeout", 30)
	viper.SetDefault("upstream.cachettl", 30)

	viper.SetDefault("watcher.pollinterval", 60)
	viper.SetDefault("watcher.backofffloor", 1)
	viper.SetDefault("watcher.backoffcap", 120)

	viper.SetDefault("notify.payloadlimit", 1950)
	viper.SetDefault("notify.timeout", 10)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "regbot.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "regbot")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "regbot")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")
}
