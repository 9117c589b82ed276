package config

import (
	"fmt"
	"os"
	"strings"
)

// secretsDir — путь по умолчанию для Docker Secrets.
var secretsDir = "/run/secrets"

// ReadSecret читает секрет из файла Docker Secrets.
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("%s/%s", secretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ReadSecretOrEnv возвращает секрет из файла, а если его нет, из переменной
// окружения. Все секреты движка необязательны.
func ReadSecretOrEnv(secretName, envKey string) string {
	if secret, err := ReadSecret(secretName); err == nil {
		return secret
	}
	return strings.TrimSpace(os.Getenv(envKey))
}
