package sensor

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/depthcapture/config"
	"go.viam.com/depthcapture/logging"
	"go.viam.com/depthcapture/utils"
)

type (
	// An InitFunc performs process-wide, one-time setup for a driver, e.g. loading a native
	// library. It runs at most once per process.
	InitFunc func(ctx context.Context, logger logging.Logger) error

	// A CreateDriver constructs a driver from its config attributes.
	CreateDriver func(attrs config.AttributeMap, logger logging.Logger) (Driver, error)

	// Registration describes how to set up and construct a driver.
	Registration struct {
		Init        InitFunc
		Constructor CreateDriver
	}
)

var (
	registryMu     sync.Mutex
	driverRegistry = map[string]Registration{}
	// initResults records the outcome of each driver's InitFunc. Presence in the map means the
	// InitFunc has already run.
	initResults = map[string]error{}
)

// RegisterDriver registers a driver under name. It panics on duplicate names.
func RegisterDriver(name string, reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, old := driverRegistry[name]; old {
		panic(errors.Errorf("trying to register two sensor drivers with same name %q", name))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for sensor driver %q", name))
	}
	driverRegistry[name] = reg
}

// RegisteredDrivers returns the sorted names of all registered drivers.
func RegisteredDrivers() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(driverRegistry))
	for name := range driverRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Initialize runs the InitFunc of every registered driver that has not been initialized yet.
// Calling it again is a no-op for drivers already initialized: their first result is reported
// again and the InitFunc is not re-run.
func Initialize(ctx context.Context, logger logging.Logger) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	var errs error
	for name, reg := range driverRegistry {
		initErr, done := initResults[name]
		if !done {
			if reg.Init != nil {
				logger.Debugw("initializing sensor driver", "driver", name)
				initErr = reg.Init(ctx, logger)
			}
			initResults[name] = initErr
		}
		if initErr != nil {
			errs = multierr.Combine(errs, errors.Wrapf(initErr, "failed to initialize sensor driver %q", name))
		}
	}
	return errs
}

// NewDriver constructs the driver registered under name. Initialize must have succeeded for it.
func NewDriver(name string, attrs config.AttributeMap, logger logging.Logger) (Driver, error) {
	registryMu.Lock()
	reg, ok := driverRegistry[name]
	initErr, initialized := initResults[name]
	registryMu.Unlock()

	if !ok {
		return nil, utils.NewDriverNotRegisteredError(name)
	}
	if !initialized {
		return nil, errors.Errorf("sensor driver %q used before Initialize", name)
	}
	if initErr != nil {
		return nil, errors.Wrapf(initErr, "sensor driver %q failed to initialize", name)
	}
	return reg.Constructor(attrs, logger.Sublogger(name))
}
