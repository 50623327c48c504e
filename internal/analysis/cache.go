package analysis

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/diagnostics"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/fingerprint"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/logging"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	logger = logging.AppLogger().WithFields(log.Fields{"component": "analysis"})

	// ErrNoClassesFound is returned when populating the cache did not find a single class.
	ErrNoClassesFound = errors.New("no class files found in the given inputs")

	// ErrCacheSealed is returned when registering a class after the cache was sealed.
	ErrCacheSealed = errors.New("class analysis cache is sealed")
)

// DuplicatePolicy decides what happens when two non-identical class bodies share a class name.
type DuplicatePolicy int

const (
	// DuplicateWarn records a diagnostic. The class name resolves to the first-seen body,
	// every body still resolves by its fingerprint.
	DuplicateWarn DuplicatePolicy = iota
	// DuplicateFail aborts the run with a DuplicateClassError.
	DuplicateFail
)

// ParseDuplicatePolicy parses "warn" or "fail".
func ParseDuplicatePolicy(value string) (DuplicatePolicy, error) {
	switch strings.ToLower(value) {
	case "warn":
		return DuplicateWarn, nil
	case "fail":
		return DuplicateFail, nil
	default:
		return DuplicateWarn, errors.Errorf("unknown duplicate class policy '%s'", value)
	}
}

func (p DuplicatePolicy) String() string {
	if p == DuplicateFail {
		return "fail"
	}
	return "warn"
}

// DuplicateClassError reports two different class bodies with the same class name.
type DuplicateClassError struct {
	ClassName string
	First     fingerprint.Fingerprint
	Second    fingerprint.Fingerprint
	Location  string
}

func (e *DuplicateClassError) Error() string {
	return fmt.Sprintf("non-identical class file for class %s at %s (%s differs from the first seen %s). "+
		"This happens when a class with the same fully-qualified name is contained twice in the inputs "+
		"but the two class files are not identical",
		e.ClassName, e.Location, e.Second.Short(), e.First.Short())
}

// IsDuplicateClassError returns true if the cause of err is a DuplicateClassError.
func IsDuplicateClassError(err error) bool {
	_, ok := errors.Cause(err).(*DuplicateClassError)
	return ok
}

// Cache stores one ClassCoverageLookup per distinct class body. It is populated once per run,
// sealed, and read-only afterwards. All methods are safe for concurrent use.
//
// Class names are resolved when sealing: of all bodies sharing a class name, the one with the
// lowest occurrence order is the first-seen class. The result does not depend on the order in
// which concurrent analyses finish.
type Cache struct {
	mu         sync.RWMutex
	policy     DuplicatePolicy
	diags      *diagnostics.Collector
	lookups    map[fingerprint.Fingerprint]*ClassCoverageLookup
	candidates map[string][]occurrence
	classNames map[string]fingerprint.Fingerprint
	archives   map[fingerprint.Fingerprint]struct{}
	sealed     bool
}

// occurrence is the first place a class body was found.
type occurrence struct {
	fingerprint fingerprint.Fingerprint
	location    string
	order       int
}

// NewCache creates an empty cache with the given duplicate class policy.
func NewCache(policy DuplicatePolicy, diags *diagnostics.Collector) *Cache {
	return &Cache{
		policy:     policy,
		diags:      diags,
		lookups:    map[fingerprint.Fingerprint]*ClassCoverageLookup{},
		candidates: map[string][]occurrence{},
		classNames: map[string]fingerprint.Fingerprint{},
		archives:   map[fingerprint.Fingerprint]struct{}{},
	}
}

// Get returns the lookup for the class body with the given fingerprint.
func (c *Cache) Get(fp fingerprint.Fingerprint) (*ClassCoverageLookup, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lookup, ok := c.lookups[fp]
	return lookup, ok
}

// Contains returns true if the class body with the given fingerprint was already analyzed.
func (c *Cache) Contains(fp fingerprint.Fingerprint) bool {
	_, ok := c.Get(fp)
	return ok
}

// Len returns the number of distinct class bodies in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.lookups)
}

// FingerprintOf returns the fingerprint of the first-seen class with the given name.
// Class names are only known once the cache is sealed.
func (c *Cache) FingerprintOf(className string) (fingerprint.Fingerprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fp, ok := c.classNames[className]
	return fp, ok
}

// Register adds the lookup found at location. order is the position of that location among
// all class occurrences of the run and decides which of several bodies sharing a class name
// is the first-seen one. Registering an already known fingerprint keeps the lower order.
func (c *Cache) Register(lookup *ClassCoverageLookup, location string, order int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return ErrCacheSealed
	}

	candidates := c.candidates[lookup.className]
	if _, ok := c.lookups[lookup.fingerprint]; ok {
		for i := range candidates {
			if candidates[i].fingerprint == lookup.fingerprint && order < candidates[i].order {
				candidates[i].location = location
				candidates[i].order = order
			}
		}
		return nil
	}

	c.lookups[lookup.fingerprint] = lookup
	c.candidates[lookup.className] = append(candidates, occurrence{
		fingerprint: lookup.fingerprint,
		location:    location,
		order:       order,
	})
	return nil
}

// MarkArchive records that the archive with the given fingerprint is being scanned.
// It returns false if the archive was already scanned during this run.
func (c *Cache) MarkArchive(fp fingerprint.Fingerprint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.archives[fp]; ok {
		return false
	}
	c.archives[fp] = struct{}{}
	return true
}

// Seal finishes population and resolves class names. Bodies sharing a class name with an
// earlier body are handled according to the duplicate policy: DuplicateFail returns the
// DuplicateClassError of the first such class name in sorted order and leaves the cache
// unsealed. Sealing an empty cache fails with ErrNoClassesFound.
func (c *Cache) Seal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lookups) == 0 {
		return ErrNoClassesFound
	}
	if c.sealed {
		return nil
	}

	classNames := make([]string, 0, len(c.candidates))
	for className := range c.candidates {
		classNames = append(classNames, className)
	}
	sort.Strings(classNames)

	resolved := make(map[string]fingerprint.Fingerprint, len(classNames))
	var duplicates []*DuplicateClassError
	for _, className := range classNames {
		candidates := c.candidates[className]
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].order < candidates[j].order
		})
		first := candidates[0]
		resolved[className] = first.fingerprint
		for _, later := range candidates[1:] {
			duplicate := &DuplicateClassError{
				ClassName: className,
				First:     first.fingerprint,
				Second:    later.fingerprint,
				Location:  later.location,
			}
			if c.policy == DuplicateFail {
				return duplicate
			}
			duplicates = append(duplicates, duplicate)
		}
	}

	for _, duplicate := range duplicates {
		logger.Warn(duplicate.Error())
		c.diags.Record(diagnostics.DuplicateClass, duplicate.ClassName)
	}
	c.classNames = resolved
	c.sealed = true
	return nil
}

// Sealed returns true once Seal succeeded.
func (c *Cache) Sealed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.sealed
}
