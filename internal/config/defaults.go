package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/nagare/data/db/queries.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "local"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/nagare/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.ModelName == "" {
		cfg.Embedding.ModelName = "all-MiniLM-L6-v2"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 128
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Analysis.SimilarityThreshold == 0 {
		cfg.Analysis.SimilarityThreshold = 0.7
	}
	if cfg.Analysis.MinClusterSize == 0 {
		cfg.Analysis.MinClusterSize = 2
	}
	if cfg.Analysis.MinClusters == 0 {
		cfg.Analysis.MinClusters = 2
	}
	if cfg.Analysis.KMin == 0 {
		cfg.Analysis.KMin = 2
	}
	if cfg.Analysis.KMax == 0 {
		cfg.Analysis.KMax = 10
	}
	if cfg.Analysis.Seed == 0 {
		cfg.Analysis.Seed = 42
	}
	if cfg.Analysis.DefaultTopN == 0 {
		cfg.Analysis.DefaultTopN = 10
	}
	if cfg.Analysis.MinSimilarityScore == 0 {
		cfg.Analysis.MinSimilarityScore = 0.1
	}
	if cfg.Analysis.DefaultWindowDays == 0 {
		cfg.Analysis.DefaultWindowDays = 30
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".log", ".txt"}
	}
}
