package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// ProxyConfig holds the authenticated proxy used for the watch page and core index.
type ProxyConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
}

type fileConfig struct {
	Proxy ProxyConfig `yaml:"proxy"`
}

// LoadProxy reads the proxy section of a config file.
func LoadProxy(path string) (ProxyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProxyConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseProxy(data)
}

// ParseProxy decodes and validates a config document. JSON documents are accepted as YAML.
func ParseProxy(data []byte) (ProxyConfig, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return ProxyConfig{}, fmt.Errorf("parse config: %w", err)
	}

	p := fc.Proxy
	p.Host = strings.TrimSpace(p.Host)
	if err := p.Validate(); err != nil {
		return ProxyConfig{}, err
	}
	return p, nil
}

// Validate checks that every proxy field is set.
func (p ProxyConfig) Validate() error {
	var missing []string
	if p.Username == "" {
		missing = append(missing, "username")
	}
	if p.Password == "" {
		missing = append(missing, "password")
	}
	if p.Host == "" {
		missing = append(missing, "host")
	}
	if len(missing) > 0 {
		return errors.New("proxy config missing " + strings.Join(missing, ", "))
	}
	return nil
}

// URL returns the proxy URL with basic-auth userinfo. Hosts without a scheme use http.
func (p ProxyConfig) URL() (*url.URL, error) {
	raw := p.Host
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy host %q: %w", p.Host, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse proxy host %q: empty host", p.Host)
	}
	u.User = url.UserPassword(p.Username, p.Password)
	return u, nil
}

// AuthorizationHeader returns the Proxy-Authorization value.
func (p ProxyConfig) AuthorizationHeader() string {
	creds := base64.StdEncoding.EncodeToString([]byte(p.Username + ":" + p.Password))
	return "Basic " + creds
}
