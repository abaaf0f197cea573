package app

import iauth "github.com/mwillfox/flowline/internal/auth"

// JWTServiceConfig converts the auth settings into the JWT service config.
func (c AuthConfig) JWTServiceConfig() iauth.JWTConfig {
	return iauth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: c.JWT.TTL,
	}
}
