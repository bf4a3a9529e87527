package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestValidateAndAddDefaults(t *testing.T) {
	// Test case with empty ProjectName and DataSource DNS
	cnf := Configuration{
		ProjectName: "",
		DataSource: DataSourceConfig{
			Dns: "",
		},
	}

	err := cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "data source DNS is required" {
		t.Errorf("Expected data source DNS required error, got %v", err)
	}

	// Unsupported driver
	cnf = Configuration{
		DataSource: DataSourceConfig{
			Dns:    "some-dns",
			Driver: "oracle",
		},
	}
	err = cnf.validateAndAddDefaults()
	if err == nil {
		t.Errorf("Expected unsupported driver error, got nil")
	}

	// Redis is optional, defaults are filled in
	cnf = Configuration{
		ProjectName: "Test Project",
		DataSource: DataSourceConfig{
			Dns:    " some-dns ",
			Driver: " MySQL",
		},
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if cnf.DataSource.Dns != "some-dns" {
		t.Errorf("Expected trimmed DNS, got %q", cnf.DataSource.Dns)
	}
	if cnf.DataSource.Driver != "mysql" {
		t.Errorf("Expected driver mysql, got %q", cnf.DataSource.Driver)
	}
	if cnf.Redis.CacheTTL != DEFAULT_CACHE_TTL {
		t.Errorf("Expected default cache ttl %s, got %s", DEFAULT_CACHE_TTL, cnf.Redis.CacheTTL)
	}
	if cnf.Query.MaxFilters != DEFAULT_MAX_FILTERS || cnf.Query.MaxInValues != DEFAULT_MAX_IN_VALUES || cnf.Query.MaxCharLen != DEFAULT_MAX_CHAR_LEN {
		t.Errorf("Expected default query limits, got %+v", cnf.Query)
	}

	// Default driver
	cnf = Configuration{DataSource: DataSourceConfig{Dns: "some-dns"}}
	err = cnf.validateAndAddDefaults()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if cnf.DataSource.Driver != DEFAULT_DRIVER {
		t.Errorf("Expected default driver %s, got %s", DEFAULT_DRIVER, cnf.DataSource.Driver)
	}
	if cnf.ProjectName != "Tenant Query" {
		t.Errorf("Expected default project name, got %s", cnf.ProjectName)
	}

	// Tracing gets a service name when enabled
	cnf = Configuration{DataSource: DataSourceConfig{Dns: "some-dns"}, Tracing: TracingConfig{Enabled: true}}
	if err := cnf.validateAndAddDefaults(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if cnf.Tracing.ServiceName != "tenantquery" {
		t.Errorf("Expected default service name, got %s", cnf.Tracing.ServiceName)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "tenantquery.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name()) // Clean up after the test

	// Sample configuration to write to the temp file
	sampleConfig := Configuration{
		ProjectName: "Temp Project",
		DataSource: DataSourceConfig{
			Dns: "temp-dns",
		},
		Redis: RedisConfig{
			Dns: "temp-redis",
		},
		Query: QueryConfig{
			MaxFilters: 5,
		},
	}
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close() // Close the file so loadConfigFromFile can open it

	// Set environment variables to override the file
	os.Setenv("TENANTQUERY_PROJECT_NAME", "Env Project")
	defer os.Unsetenv("TENANTQUERY_PROJECT_NAME")
	os.Setenv("TENANTQUERY_QUERY_TIMEOUT", "3s")
	defer os.Unsetenv("TENANTQUERY_QUERY_TIMEOUT")

	// Load the configuration from the file
	if err := loadConfigFromFile(tmpFile.Name()); err != nil {
		t.Fatalf("loadConfigFromFile failed: %v", err)
	}

	// Fetch the loaded configuration
	loadedConfig, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// Check if the environment variable override worked
	if loadedConfig.ProjectName != "Env Project" {
		t.Errorf("Expected ProjectName to be 'Env Project', got '%s'", loadedConfig.ProjectName)
	}
	if loadedConfig.Query.Timeout != 3*time.Second {
		t.Errorf("Expected Query.Timeout to be 3s, got %s", loadedConfig.Query.Timeout)
	}

	// Check if the values were loaded correctly from the file
	if loadedConfig.DataSource.Dns != "temp-dns" {
		t.Errorf("Expected DataSource.Dns to be 'temp-dns', got '%s'", loadedConfig.DataSource.Dns)
	}
	if loadedConfig.Query.MaxFilters != 5 {
		t.Errorf("Expected Query.MaxFilters to be 5, got %d", loadedConfig.Query.MaxFilters)
	}
}

func TestInitConfig(t *testing.T) {
	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "tenantquery.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name()) // Clean up after the test

	sampleConfig := Configuration{
		ProjectName: "InitConfig Test",
		DataSource: DataSourceConfig{
			Dns:    "file::memory:",
			Driver: "sqlite3",
		},
	}
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close()

	if err := InitConfig(tmpFile.Name()); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	loadedConfig, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if loadedConfig.ProjectName != "InitConfig Test" {
		t.Errorf("Expected ProjectName to be 'InitConfig Test', got '%s'", loadedConfig.ProjectName)
	}
	if loadedConfig.DataSource.Driver != "sqlite3" {
		t.Errorf("Expected DataSource.Driver to be 'sqlite3', got '%s'", loadedConfig.DataSource.Driver)
	}
}

func TestMockConfig(t *testing.T) {
	MockConfig(&Configuration{ProjectName: "mocked"})
	cnf, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if cnf.ProjectName != "mocked" {
		t.Errorf("Expected mocked config, got %s", cnf.ProjectName)
	}
}
