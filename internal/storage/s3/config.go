package s3

// Config represents object store client configuration. A zero Region and
// Endpoint selects staging mode: documents are kept in a local directory that
// mirrors the remote layout, for environments without network access to a
// real object store.
type Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style"`

	// StagingDir is the local root used in staging mode. Defaults to ".mock_s3".
	StagingDir string `yaml:"staging_dir"`

	MaxRetries int `yaml:"max_retries"`
}

// NewDefaultConfig returns a configuration for staging mode.
func NewDefaultConfig() *Config {
	return &Config{
		StagingDir: ".mock_s3",
		MaxRetries: 3,
	}
}

// remote reports whether a real object store client should be used.
func (c *Config) remote() bool {
	return c.Region != "" || c.Endpoint != ""
}

func (c *Config) stagingDir() string {
	if c.StagingDir == "" {
		return ".mock_s3"
	}
	return c.StagingDir
}
