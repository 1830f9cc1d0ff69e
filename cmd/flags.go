package cmd

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

// ------------------------------------------------------------------------------------------------
// ~ DSA connection
// ------------------------------------------------------------------------------------------------

func dsaHostFlag(v *viper.Viper) string {
	return v.GetString("dsa.host")
}

func addDSAHostFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("dsa-host", "", "DSA server host name")
	_ = v.BindPFlag("dsa.host", flags.Lookup("dsa-host"))
	_ = v.BindEnv("dsa.host", "DSA_HOST")
}

func dsaPortFlag(v *viper.Viper) int {
	return v.GetInt("dsa.port")
}

func addDSAPortFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("dsa-port", 9090, "DSA server REST port")
	_ = v.BindPFlag("dsa.port", flags.Lookup("dsa-port"))
	_ = v.BindEnv("dsa.port", "DSA_PORT")
}

func dsaProtocolFlag(v *viper.Viper) string {
	return v.GetString("dsa.protocol")
}

func addDSAProtocolFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("dsa-protocol", "https", "DSA server protocol (http|https)")
	_ = v.BindPFlag("dsa.protocol", flags.Lookup("dsa-protocol"))
	_ = v.BindEnv("dsa.protocol", "DSA_PROTOCOL")
}

func dsaVerifySSLFlag(v *viper.Viper) bool {
	return v.GetBool("dsa.verify_ssl")
}

func addDSAVerifySSLFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("dsa-verify-ssl", true, "Verify the DSA server certificate")
	_ = v.BindPFlag("dsa.verify_ssl", flags.Lookup("dsa-verify-ssl"))
	_ = v.BindEnv("dsa.verify_ssl", "DSA_VERIFY_SSL")
}

func dsaUsernameFlag(v *viper.Viper) string {
	return v.GetString("dsa.username")
}

func addDSAUsernameFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("dsa-username", "", "DSA basic auth user")
	_ = v.BindPFlag("dsa.username", flags.Lookup("dsa-username"))
	_ = v.BindEnv("dsa.username", "DSA_USERNAME")
}

func dsaPasswordFlag(v *viper.Viper) string {
	return v.GetString("dsa.password")
}

func addDSAPasswordFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("dsa-password", "", "DSA basic auth password")
	_ = v.BindPFlag("dsa.password", flags.Lookup("dsa-password"))
	_ = v.BindEnv("dsa.password", "DSA_PASSWORD")
}

func dsaTimeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("dsa.timeout")
}

func addDSATimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("dsa-timeout", 30*time.Second, "Timeout of a single DSA request")
	_ = v.BindPFlag("dsa.timeout", flags.Lookup("dsa-timeout"))
	_ = v.BindEnv("dsa.timeout", "DSA_TIMEOUT")
}

func dsaRetriesFlag(v *viper.Viper) int {
	return v.GetInt("dsa.retries")
}

func addDSARetriesFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("dsa-retries", 3, "Retries on transport errors and busy answers (429, 502, 503, 504)")
	_ = v.BindPFlag("dsa.retries", flags.Lookup("dsa-retries"))
	_ = v.BindEnv("dsa.retries", "DSA_RETRIES")
}

// ------------------------------------------------------------------------------------------------
// ~ Snapshots
// ------------------------------------------------------------------------------------------------

func snapshotEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("snapshot.enabled")
}

func addSnapshotEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("snapshot-enabled", true, "Store the previous collection before every write")
	_ = v.BindPFlag("snapshot.enabled", flags.Lookup("snapshot-enabled"))
	_ = v.BindEnv("snapshot.enabled", "BARCTL_SNAPSHOT_ENABLED")
}

func snapshotStorageTypeFlag(v *viper.Viper) string {
	return v.GetString("snapshot.storage_type")
}

func addSnapshotStorageTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("snapshot-storage-type", "filesystem", "Snapshot storage backend (filesystem|blob)")
	_ = v.BindPFlag("snapshot.storage_type", flags.Lookup("snapshot-storage-type"))
	_ = v.BindEnv("snapshot.storage_type", "BARCTL_SNAPSHOT_STORAGE_TYPE")
}

func snapshotDirFlag(v *viper.Viper) string {
	return v.GetString("snapshot.dir")
}

func addSnapshotDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("snapshot-dir", "/var/lib/barctl", "Directory of the filesystem snapshot storage")
	_ = v.BindPFlag("snapshot.dir", flags.Lookup("snapshot-dir"))
	_ = v.BindEnv("snapshot.dir", "BARCTL_SNAPSHOT_DIR")
}

func snapshotBlobBucketFlag(v *viper.Viper) string {
	return v.GetString("snapshot.blob.bucket")
}

func addSnapshotBlobBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("snapshot-blob-bucket", "", "Bucket URL of the blob snapshot storage, e.g. s3://bucket?region=eu-central-1")
	_ = v.BindPFlag("snapshot.blob.bucket", flags.Lookup("snapshot-blob-bucket"))
	_ = v.BindEnv("snapshot.blob.bucket", "BARCTL_SNAPSHOT_BLOB_BUCKET")
}

func snapshotBlobPrefixFlag(v *viper.Viper) string {
	return v.GetString("snapshot.blob.prefix")
}

func addSnapshotBlobPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("snapshot-blob-prefix", "", "Key prefix inside the snapshot bucket")
	_ = v.BindPFlag("snapshot.blob.prefix", flags.Lookup("snapshot-blob-prefix"))
	_ = v.BindEnv("snapshot.blob.prefix", "BARCTL_SNAPSHOT_BLOB_PREFIX")
}

func snapshotLimitFlag(v *viper.Viper) int {
	return v.GetInt("snapshot.limit")
}

func addSnapshotLimitFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("snapshot-limit", 10, "Number of snapshots to keep per collection")
	_ = v.BindPFlag("snapshot.limit", flags.Lookup("snapshot-limit"))
	_ = v.BindEnv("snapshot.limit", "BARCTL_SNAPSHOT_LIMIT")
}

// ------------------------------------------------------------------------------------------------
// ~ HTTP service
// ------------------------------------------------------------------------------------------------

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "BARCTL_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/barctl", "Base path to export the tool endpoints on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "BARCTL_BASE_PATH")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 0, "Graceful period before shutting down")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "BARCTL_GRACEFUL_PERIOD")
}

func gzipLevelFlag(v *viper.Viper) int {
	return v.GetInt("gzip.level")
}

func addGzipLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("gzip-level", 5, "Compression level of http replies")
	_ = v.BindPFlag("gzip.level", flags.Lookup("gzip-level"))
	_ = v.BindEnv("gzip.level", "BARCTL_GZIP_LEVEL")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}
