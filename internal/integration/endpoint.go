package integration

import (
	"fmt"
	"strings"
)

// Endpoint 模块目录中按环境配置的远端接入点
type Endpoint struct {
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Port   string `json:"port"`
	Path   string `json:"path"`
}

// URL 拼接完整请求地址
func (e Endpoint) URL() string {
	scheme := strings.TrimSpace(e.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	host := strings.TrimSpace(e.Host)
	port := strings.TrimSpace(e.Port)
	path := strings.TrimSpace(e.Path)
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if port != "" && port != "80" && port != "443" {
		return fmt.Sprintf("%s://%s:%s%s", scheme, host, port, path)
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}

// ResolveEndpoint 从模块目录的环境配置里解析接入点
func ResolveEndpoint(envConfig map[string]interface{}, environment string) (Endpoint, error) {
	environment = strings.ToLower(strings.TrimSpace(environment))
	if environment == "" {
		environment = "production"
	}
	raw, ok := envConfig[environment]
	if !ok || raw == nil {
		return Endpoint{}, fmt.Errorf("%w: no endpoint for environment %s", ErrConfiguration, environment)
	}
	mapped, ok := raw.(map[string]interface{})
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: endpoint config for %s is malformed", ErrConfiguration, environment)
	}
	endpoint := Endpoint{
		Scheme: readEndpointString(mapped, "scheme"),
		Host:   readEndpointString(mapped, "host"),
		Port:   readEndpointString(mapped, "port"),
		Path:   readEndpointString(mapped, "path"),
	}
	if endpoint.Host == "" {
		return Endpoint{}, fmt.Errorf("%w: endpoint host for %s is missing", ErrConfiguration, environment)
	}
	return endpoint, nil
}

func readEndpointString(raw map[string]interface{}, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(str)
}
