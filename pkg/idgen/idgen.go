package idgen

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/sonyflake"
)

// ProvisionalPrefix marks client-generated message ids that have not yet
// been confirmed by the server.
const ProvisionalPrefix = "temp_"

// ProvisionalMessageId generates a provisional message id of the form
// temp_<unix_milli>_<random>. The id only needs to be unique within the
// client session; the server never sees it as a message id.
func ProvisionalMessageId() string {
	return fmt.Sprintf("%s%d_%s", ProvisionalPrefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}

// IsProvisional reports whether id is a client-generated provisional id.
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, ProvisionalPrefix)
}

// IDGenerator is the interface for generating unique IDs
type IDGenerator interface {
	// NextID generates a new unique ID
	NextID() (string, error)
}

// SonyflakeGenerator implements IDGenerator using sonyflake
type SonyflakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewSonyflakeGenerator creates a new SonyflakeGenerator
func NewSonyflakeGenerator(machineID uint16) (*SonyflakeGenerator, error) {
	st := sonyflake.Settings{
		StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MachineID: func() (uint16, error) {
			return machineID, nil
		},
	}

	sf, err := sonyflake.New(st)
	if err != nil {
		return nil, fmt.Errorf("failed to create sonyflake: %w", err)
	}

	return &SonyflakeGenerator{sf: sf}, nil
}

// NextID generates a new unique ID
func (g *SonyflakeGenerator) NextID() (string, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return fmt.Sprintf("%d", id), nil
}

// UUIDGenerator implements IDGenerator using UUID v4
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NextID generates a new UUID
func (g *UUIDGenerator) NextID() (string, error) {
	return uuid.NewString(), nil
}

// Global default generator
var (
	defaultGenerator IDGenerator
	once             sync.Once
	initErr          error
)

// SetDefaultGenerator sets the default ID generator
func SetDefaultGenerator(gen IDGenerator) {
	defaultGenerator = gen
}

// GetDefaultGenerator returns the default ID generator.
// If not set, creates a SonyflakeGenerator with machineID 1.
func GetDefaultGenerator() (IDGenerator, error) {
	once.Do(func() {
		if defaultGenerator == nil {
			defaultGenerator, initErr = NewSonyflakeGenerator(1)
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	return defaultGenerator, nil
}

// OperationId generates an id stamped on outbound frames for log
// correlation. Falls back to a UUID if the default generator fails.
func OperationId() string {
	gen, err := GetDefaultGenerator()
	if err != nil {
		return uuid.NewString()
	}
	id, err := gen.NextID()
	if err != nil {
		return uuid.NewString()
	}
	return id
}
