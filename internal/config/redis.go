package config

type Redis struct {
	Address  string `env:"REDIS_ADDRESS,notEmpty"`
	Username string `env:"REDIS_USERNAME"`
	Password string `env:"REDIS_PASSWORD" json:"-"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	QueueDB  int    `env:"REDIS_QUEUE_DB" envDefault:"1"`
}
