package services

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
)

// SimulatedHospitalCount is the size of every synthetic roster
const SimulatedHospitalCount = 15

// coordinateJitterDeg bounds how far a synthetic facility sits from the region reference point
const coordinateJitterDeg = 0.05

// SimulationService synthesizes a plausible hospital list when the live source is unusable
type SimulationService struct {
	catalogue *entities.RegionCatalogue
	now       func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulationService creates a generator seeded from the runtime's entropy source
func NewSimulationService(catalogue *entities.RegionCatalogue) *SimulationService {
	return NewSimulationServiceWithRand(catalogue, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), time.Now)
}

// NewSimulationServiceWithRand creates a generator with an explicit random source and clock
func NewSimulationServiceWithRand(catalogue *entities.RegionCatalogue, rnd *rand.Rand, now func() time.Time) *SimulationService {
	if catalogue == nil {
		catalogue = entities.DefaultRegionCatalogue()
	}
	return &SimulationService{catalogue: catalogue, rnd: rnd, now: now}
}

// Generate returns SimulatedHospitalCount synthetic records around the
// region's reference point. It never fails.
func (s *SimulationService) Generate(query entities.RegionQuery) []entities.HospitalRecord {
	query = query.Normalize()
	ref, label := s.catalogue.Reference(query.Province)
	if query.HasDistrict() {
		label = label + " " + query.District
	}
	updated := s.now().In(entities.KST).Format("15:04")
	regionKey := query.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]entities.HospitalRecord, SimulatedHospitalCount)
	for i := range records {
		generalTotal := 20 + s.rnd.IntN(30)
		pediatricTotal, pediatricAvail := s.optionalCapacity(0.7, 5, 10)
		deliveryTotal, deliveryAvail := s.optionalCapacity(0.5, 2, 5)

		records[i] = entities.HospitalRecord{
			ID:                            fmt.Sprintf("%s%s_%d", entities.SimulatedIDPrefix, regionKey, i+1),
			Name:                          fmt.Sprintf("%s 사랑%d병원 [가상]", label, i+1),
			Phone:                         fmt.Sprintf("02-1234-%d", 1000+i),
			GeneralBedsAvailable:          s.rnd.IntN(generalTotal + 1),
			GeneralBedsTotal:              entities.IntPtr(generalTotal),
			PediatricBedsAvailable:        pediatricAvail,
			PediatricBedsTotal:            entities.IntPtr(pediatricTotal),
			DeliveryRoomsAvailable:        deliveryAvail,
			DeliveryRoomsTotal:            entities.IntPtr(deliveryTotal),
			IsolationBedsNegativePressure: s.rnd.IntN(2),
			IsolationBedsGeneral:          s.rnd.IntN(5),
			HasCT:                         s.rnd.Float64() < 0.8,
			HasMRI:                        s.rnd.Float64() < 0.8,
			HasAngio:                      s.rnd.Float64() < 0.5,
			HasVentilator:                 s.rnd.Float64() < 0.7,
			ParentFacilityID:              fmt.Sprintf("%sPH%d", entities.SimulatedIDPrefix, i+1),
			LastUpdatedLabel:              updated,
			Coordinate: &entities.Coordinate{
				Latitude:  ref.Latitude + s.jitter(),
				Longitude: ref.Longitude + s.jitter(),
			},
		}
	}
	return records
}

// optionalCapacity returns a zero total (capability absent) with probability
// 1-offered, otherwise a total in [base, base+spread) and an available count in [0, total].
func (s *SimulationService) optionalCapacity(offered float64, base, spread int) (int, int) {
	if s.rnd.Float64() >= offered {
		return 0, 0
	}
	total := base + s.rnd.IntN(spread)
	return total, s.rnd.IntN(total + 1)
}

func (s *SimulationService) jitter() float64 {
	return (s.rnd.Float64()*2 - 1) * coordinateJitterDeg
}
