package ccsds

// PUSService enumerates the ECSS-E-70-41A service types a PUS TC header
// identifies (spec.md §5), ported from the PUS::tc::Service enum of
// original_source/src/pus_tc.h.
type PUSService uint8

const (
	TelecommandVerificationService                PUSService = 1
	DeviceCommandDistributionService              PUSService = 2
	HousekeepingAndDiagnosticDataReportingService PUSService = 3
	ParameterStatisticsReportingService           PUSService = 4
	EventReportingService                         PUSService = 5
	MemoryManagementService                       PUSService = 6
	FunctionManagementService                     PUSService = 8
	TimeManagementService                         PUSService = 9
	OnboardOperationsSchedulingService            PUSService = 11
	OnboardMonitoringService                      PUSService = 12
	LargeDataTransferService                      PUSService = 13
	PacketForwardingControlService                PUSService = 14
	OnboardStorageAndRetrievalService             PUSService = 15
	TestService                                   PUSService = 17
	OnboardOperationsProcedureService             PUSService = 18
	EventActionService                            PUSService = 19
)
