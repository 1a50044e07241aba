package config

import (
	"time"
)

const (
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, job and run history fall back to in-memory stores
	TRACE_ID_KEY                    = "traceId"
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5
	RateLimiterIdleTTL              = 10 * time.Minute

	EnvPrefix = "DOCSYNC"

	//ingestion
	EmbeddingBatchSize = 100
	PageExtractTimeout = 10 * time.Second
	WatchDebounce      = 2 * time.Second
	SyncJobTimeout     = 30 * time.Minute
	QueryJobTimeout    = 60 * time.Second

	//retrieval
	DefaultTopK       = 4
	DefaultQueryCount = 3

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantPoolSize          = 1 //2-5 is preferred for prod according to documentation
	SQLiteFileName          = "vectors.db"

	//embeddings
	OpenAIEmbeddingModel = "text-embedding-ada-002"
	GoogleEmbeddingModel = "gemini-embedding-001"
	GeminiModelName      = "gemini-2.5-flash-lite"
	OpenAIChatModel      = "gpt-4o-mini"

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second
	HttpClientTimeout   = 60 * time.Second

	//redis has 16 DB we can use
	RedisJobStore = 0
	RedisRunStore = 1

	//redis timeouts
	RedisJobStoreTTL = 24 * time.Hour
	RedisRunStoreTTL = 7 * 24 * time.Hour
	RunHistoryLimit  = 20

	//crawler
	CrawlerUserAgent = "docsync-crawler/1.0"
)

// Default goal and state snapshot used by the query command when none is given.
const (
	DefaultGoal  = "build a nether portal"
	DefaultState = `STATS
- Position: x: 33.64, y: 66.00, z: -5.50
- Gamemode: survival
- Health: 20 / 20
- Hunger: 20 / 20
- Biome: forest
- Weather: Clear
- Block Below: oak_leaves
- Block at Legs: air
- Block at Head: air
- First Solid Block Above Head: none
- Time: Afternoon- Current Action: Idle
- Nearby Human Players: None.
- Nearby Bot Players: None.
INVENTORY
- oak_sapling: 4
- oak_log: 7
WEARING: Nothing`
)
